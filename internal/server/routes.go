package server

import (
	"context"
	"net/http"

	"github.com/ironsheep/photo-editor/internal/imaging"
	"github.com/ironsheep/photo-editor/internal/metrics"
	"github.com/ironsheep/photo-editor/internal/storage"
)

// HandlerFunc runs one route after its parameters are bound.
type HandlerFunc func(ctx context.Context, req Request, args Args) (*Reply, error)

// Route describes one endpoint of the HTTP contract. Paths use "{name}" for
// path parameters.
type Route struct {
	Name        string  `json:"name"`
	Method      string  `json:"method"`
	Path        string  `json:"path"`
	Description string  `json:"description"`
	Params      []Param `json:"params,omitempty"`

	// Operation labels image operation metrics; empty for routes that do not
	// transform an image.
	Operation string `json:"-"`

	handle   HandlerFunc
	recorder metrics.Recorder
}

var filenameParam = Param{
	Name:        "filename",
	In:          InForm,
	Type:        TypeString,
	Required:    true,
	Description: "Name of a previously uploaded file",
}

var storedFileParams = []Param{
	{
		Name:        "kind",
		In:          InPath,
		Type:        TypeString,
		Required:    true,
		Enum:        []string{string(storage.Uploads), string(storage.Processed)},
		Description: "Storage namespace",
	},
	{
		Name:        "name",
		In:          InPath,
		Type:        TypeString,
		Required:    true,
		Description: "Stored file name",
	},
}

func (s *Server) routeTable() []Route {
	routes := []Route{
		{
			Name:        "index",
			Method:      http.MethodGet,
			Path:        "/",
			Description: "Report service status and the front end serving the request.",
			handle:      s.handleIndex,
		},
		{
			Name:        "healthz",
			Method:      http.MethodGet,
			Path:        "/healthz",
			Description: "Liveness probe.",
			handle:      s.handleHealthz,
		},
		{
			Name:        "routes",
			Method:      http.MethodGet,
			Path:        "/routes",
			Description: "List every route with its parameters.",
			handle:      s.handleRoutes,
		},
		{
			Name:        "upload",
			Method:      http.MethodPost,
			Path:        "/upload",
			Description: "Store an uploaded file under a timestamped name.",
			Params: []Param{
				{Name: "file", In: InForm, Type: TypeFile, Required: true, Description: "Image file as a multipart field"},
			},
			handle: s.handleUpload,
		},
		{
			Name:        "resize",
			Method:      http.MethodPost,
			Path:        "/resize",
			Description: "Resize an upload, bounded or exact. Saved as JPEG.",
			Operation:   "resize",
			Params: []Param{
				filenameParam,
				{Name: "width", In: InForm, Type: TypeInteger, Description: "Target width; absent keeps the original"},
				{Name: "height", In: InForm, Type: TypeInteger, Description: "Target height; absent keeps the original"},
				{Name: "keep_aspect", In: InForm, Type: TypeBoolean, Default: "true", Description: "Fit within the box instead of stretching"},
			},
			handle: s.handleResize,
		},
		{
			Name:        "crop",
			Method:      http.MethodPost,
			Path:        "/crop",
			Description: "Crop an upload to [left,right) x [upper,lower). Saved as JPEG.",
			Operation:   "crop",
			Params: []Param{
				filenameParam,
				{Name: "left", In: InForm, Type: TypeInteger, Required: true, Description: "Left edge, inclusive"},
				{Name: "upper", In: InForm, Type: TypeInteger, Required: true, Description: "Top edge, inclusive"},
				{Name: "right", In: InForm, Type: TypeInteger, Required: true, Description: "Right edge, exclusive"},
				{Name: "lower", In: InForm, Type: TypeInteger, Required: true, Description: "Bottom edge, exclusive"},
			},
			handle: s.handleCrop,
		},
		{
			Name:        "aspect",
			Method:      http.MethodPost,
			Path:        "/aspect",
			Description: "Normalize an upload to an exact target size. Saved as JPEG.",
			Operation:   "aspect",
			Params: []Param{
				filenameParam,
				{Name: "target_w", In: InForm, Type: TypeInteger, Required: true, Description: "Output width"},
				{Name: "target_h", In: InForm, Type: TypeInteger, Required: true, Description: "Output height"},
				{
					Name:        "mode",
					In:          InForm,
					Type:        TypeString,
					Default:     string(imaging.ModeFit),
					Enum:        []string{string(imaging.ModeFit), string(imaging.ModeFill), string(imaging.ModePad)},
					Description: "fit letterboxes, fill center-crops, pad pastes centered",
				},
				{Name: "fill_color", In: InForm, Type: TypeString, Default: "#ffffff", Description: "Hex background color for fit and pad"},
			},
			handle: s.handleAspect,
		},
		{
			Name:        "convert",
			Method:      http.MethodPost,
			Path:        "/convert",
			Description: "Re-encode an upload in another format.",
			Operation:   "convert",
			Params: []Param{
				filenameParam,
				{Name: "fmt", In: InForm, Type: TypeString, Default: "JPEG", Description: "JPEG, PNG, GIF, TIFF or BMP"},
				{Name: "quality", In: InForm, Type: TypeInteger, Default: "85", Description: "JPEG quality, 1-100"},
			},
			handle: s.handleConvert,
		},
		{
			Name:        "thumbnail",
			Method:      http.MethodPost,
			Path:        "/thumbnail",
			Description: "Shrink an upload to fit a box, never enlarging. Saved as JPEG.",
			Operation:   "thumbnail",
			Params: []Param{
				filenameParam,
				{Name: "w", In: InForm, Type: TypeInteger, Default: "200", Description: "Maximum width"},
				{Name: "h", In: InForm, Type: TypeInteger, Default: "200", Description: "Maximum height"},
			},
			handle: s.handleThumbnail,
		},
		{
			Name:        "rotate",
			Method:      http.MethodPost,
			Path:        "/rotate",
			Description: "Rotate an upload counter-clockwise. Saved as JPEG.",
			Operation:   "rotate",
			Params: []Param{
				filenameParam,
				{Name: "angle", In: InForm, Type: TypeNumber, Required: true, Description: "Degrees, counter-clockwise"},
				{Name: "expand", In: InForm, Type: TypeBoolean, Default: "true", Description: "Grow the canvas to hold the whole result"},
			},
			handle: s.handleRotate,
		},
		{
			Name:        "download",
			Method:      http.MethodGet,
			Path:        "/download/{kind}/{name}",
			Description: "Download a stored file as an attachment.",
			Params:      storedFileParams,
			handle:      s.handleDownload,
		},
		{
			Name:        "info",
			Method:      http.MethodGet,
			Path:        "/info/{kind}/{name}",
			Description: "Report dimensions, format and alpha of a stored image.",
			Params:      storedFileParams,
			handle:      s.handleInfo,
		},
	}

	for i := range routes {
		routes[i].recorder = s.metrics
	}
	return routes
}
