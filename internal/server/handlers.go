package server

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ironsheep/photo-editor/internal/imaging"
	"github.com/ironsheep/photo-editor/internal/storage"
)

// Output encodings of the fixed-format routes.
var (
	resizeEncoding    = imaging.EncodeOptions{Format: imaging.JPEG, Quality: 85, Optimize: true}
	cropEncoding      = imaging.EncodeOptions{Format: imaging.JPEG, Quality: 90, Optimize: true}
	aspectEncoding    = imaging.EncodeOptions{Format: imaging.JPEG, Quality: 90, Optimize: true}
	thumbnailEncoding = imaging.EncodeOptions{Format: imaging.JPEG, Quality: 80, Optimize: true}
	rotateEncoding    = imaging.EncodeOptions{Format: imaging.JPEG, Quality: 90, Optimize: true}
)

// === Service Handlers ===

func (s *Server) handleIndex(_ context.Context, req Request, _ Args) (*Reply, error) {
	return jsonReply(map[string]string{"status": "ok", "framework": req.Framework()}), nil
}

func (s *Server) handleHealthz(context.Context, Request, Args) (*Reply, error) {
	return &Reply{Status: http.StatusOK, Text: "ok"}, nil
}

func (s *Server) handleRoutes(context.Context, Request, Args) (*Reply, error) {
	return jsonReply(s.routes), nil
}

// === Storage Handlers ===

func (s *Server) handleUpload(ctx context.Context, req Request, _ Args) (*Reply, error) {
	fh, err := req.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: file is required: %v", ErrBadRequest, err)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	name, path, err := s.store.SaveUpload(fh.Filename, data)
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Str("filename", name).Int("bytes", len(data)).Msg("upload stored")
	return jsonReply(map[string]string{"filename": name, "path": path}), nil
}

func (s *Server) handleDownload(_ context.Context, _ Request, args Args) (*Reply, error) {
	kind, err := storage.ParseKind(args.String("kind"))
	if err != nil {
		return nil, err
	}
	name := args.String("name")

	f, info, err := s.store.Open(kind, name)
	if err != nil {
		return nil, err
	}

	return &Reply{
		Status: http.StatusOK,
		File: &Attachment{
			Name:        name,
			ContentType: "application/octet-stream",
			ModTime:     info.ModTime(),
			Size:        info.Size(),
			Content:     f,
		},
	}, nil
}

// storedImageInfo is the body of the info route.
type storedImageInfo struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Path string `json:"path"`
	*imaging.ImageInfo
}

func (s *Server) handleInfo(_ context.Context, _ Request, args Args) (*Reply, error) {
	kind, err := storage.ParseKind(args.String("kind"))
	if err != nil {
		return nil, err
	}
	name := args.String("name")

	data, err := s.store.Read(kind, name)
	if err != nil {
		return nil, err
	}
	info, err := imaging.Inspect(data)
	if err != nil {
		return nil, err
	}
	path, err := s.store.Path(kind, name)
	if err != nil {
		return nil, err
	}

	return jsonReply(storedImageInfo{Kind: string(kind), Name: name, Path: path, ImageInfo: info}), nil
}

// === Image Operation Handlers ===

func (s *Server) handleResize(ctx context.Context, _ Request, args Args) (*Reply, error) {
	src, img, err := s.loadUpload(ctx, args)
	if err != nil {
		return nil, err
	}

	out, err := imaging.Resize(img, args.Int("width"), args.Int("height"), args.Bool("keep_aspect"))
	if err != nil {
		return nil, err
	}
	return s.saveProcessed(ctx, "processed", "resized_"+src, out, resizeEncoding)
}

func (s *Server) handleCrop(ctx context.Context, _ Request, args Args) (*Reply, error) {
	src, img, err := s.loadUpload(ctx, args)
	if err != nil {
		return nil, err
	}

	out := imaging.Crop(img, args.Int("left"), args.Int("upper"), args.Int("right"), args.Int("lower"))
	return s.saveProcessed(ctx, "processed", "crop_"+src, out, cropEncoding)
}

func (s *Server) handleAspect(ctx context.Context, _ Request, args Args) (*Reply, error) {
	src, img, err := s.loadUpload(ctx, args)
	if err != nil {
		return nil, err
	}

	mode, err := imaging.ParseAspectMode(args.String("mode"))
	if err != nil {
		return nil, err
	}
	fill, err := imaging.ParseFillColor(args.String("fill_color"))
	if err != nil {
		return nil, err
	}

	out, err := imaging.ChangeAspectRatio(img, args.Int("target_w"), args.Int("target_h"), mode, fill)
	if err != nil {
		return nil, err
	}
	return s.saveProcessed(ctx, "processed", fmt.Sprintf("aspect_%s_%s", mode, src), out, aspectEncoding)
}

func (s *Server) handleConvert(ctx context.Context, _ Request, args Args) (*Reply, error) {
	src, img, err := s.loadUpload(ctx, args)
	if err != nil {
		return nil, err
	}

	name := args.String("fmt")
	format, err := imaging.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	opts := imaging.EncodeOptions{Format: format, Quality: args.Int("quality"), Optimize: true}
	root := strings.TrimSuffix(src, filepath.Ext(src))
	return s.saveProcessed(ctx, "processed", root+"."+strings.ToLower(name), img, opts)
}

func (s *Server) handleThumbnail(ctx context.Context, _ Request, args Args) (*Reply, error) {
	src, img, err := s.loadUpload(ctx, args)
	if err != nil {
		return nil, err
	}

	out, err := imaging.Thumbnail(img, args.Int("w"), args.Int("h"))
	if err != nil {
		return nil, err
	}
	return s.saveProcessed(ctx, "thumbnail", "thumb_"+src, out, thumbnailEncoding)
}

func (s *Server) handleRotate(ctx context.Context, _ Request, args Args) (*Reply, error) {
	src, img, err := s.loadUpload(ctx, args)
	if err != nil {
		return nil, err
	}

	angle := args.Float("angle")
	out := imaging.Rotate(img, angle, args.Bool("expand"))
	name := fmt.Sprintf("rotate_%s_%s", strconv.FormatFloat(angle, 'f', -1, 64), src)
	return s.saveProcessed(ctx, "processed", name, out, rotateEncoding)
}

// loadUpload reads and decodes the upload named by the filename argument.
func (s *Server) loadUpload(ctx context.Context, args Args) (string, image.Image, error) {
	name := args.String("filename")

	data, err := s.store.Read(storage.Uploads, name)
	if err != nil {
		return "", nil, err
	}
	img, err := imaging.Decode(data)
	if err != nil {
		return "", nil, err
	}

	b := img.Bounds()
	log.Ctx(ctx).Debug().Str("filename", name).Int("width", b.Dx()).Int("height", b.Dy()).Msg("upload decoded")
	return name, img, nil
}

// saveProcessed encodes img into the processed namespace and returns the
// success reply, naming the output under key.
func (s *Server) saveProcessed(ctx context.Context, key, name string, img image.Image, opts imaging.EncodeOptions) (*Reply, error) {
	path, err := s.store.Path(storage.Processed, name)
	if err != nil {
		return nil, err
	}
	if _, err := imaging.EncodeAndSave(s.store.Fs(), path, img, opts); err != nil {
		return nil, err
	}

	b := img.Bounds()
	log.Ctx(ctx).Info().
		Str("output", name).
		Str("format", opts.Format.String()).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Msg("image processed")
	return jsonReply(map[string]string{key: name, "path": path}), nil
}

func jsonReply(v any) *Reply {
	return &Reply{Status: http.StatusOK, JSON: v}
}
