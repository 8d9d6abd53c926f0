package processor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// ImageProcessor reads dimensions and format from the image header and, for
// JPEG, a small allow-list of EXIF tags. It never decodes pixel data and
// never produces a resized image; the output is a text report.
type ImageProcessor struct{}

func NewImageProcessor() *ImageProcessor { return &ImageProcessor{} }

func (p *ImageProcessor) Type() string { return TypeImageResize }

var exifFields = []struct {
	tag   exif.FieldName
	label string
}{
	{exif.Make, "Camera Make"},
	{exif.Model, "Camera Model"},
	{exif.DateTime, "Date Taken"},
	{exif.ExposureTime, "Exposure Time"},
	{exif.FNumber, "F-Stop"},
	{exif.ISOSpeedRatings, "ISO"},
	{exif.FocalLength, "Focal Length"},
	{exif.Flash, "Flash"},
	{exif.Orientation, "Orientation"},
}

func (p *ImageProcessor) Process(data []byte, info FileInfo) Result {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return failureResult("Invalid image file or unable to read image information")
	}

	mime := "image/" + format

	var b strings.Builder
	b.WriteString(reportHeader("IMAGE PROCESSING REPORT",
		headerField{"Original File", info.Name},
		headerField{"File Size", kilobytes(info.Size)},
	))
	b.WriteString("\nIMAGE INFORMATION:\n")
	fmt.Fprintf(&b, "Dimensions: %d x %d pixels\n", cfg.Width, cfg.Height)
	fmt.Fprintf(&b, "MIME Type: %s\n", mime)

	metadata := map[string]any{
		"width":  cfg.Width,
		"height": cfg.Height,
		"mime":   mime,
		"size":   info.Size,
	}

	if cfg.Width > 0 && cfg.Height > 0 {
		aspect := float64(cfg.Width) / float64(cfg.Height)
		megapixels := float64(cfg.Width) * float64(cfg.Height) / 1_000_000
		fmt.Fprintf(&b, "Aspect Ratio: %.2f:1\n", aspect)
		fmt.Fprintf(&b, "Megapixels: %.2f MP\n", megapixels)
		metadata["aspect_ratio"] = aspect
		metadata["megapixels"] = megapixels
	}

	if format == "jpeg" {
		if tags := extractExif(data); len(tags) > 0 {
			b.WriteString("\nEXIF DATA:\n")
			for _, t := range tags {
				fmt.Fprintf(&b, "%s: %s\n", t[0], t[1])
			}
		}
	}

	return successResult([]byte(b.String()), "text/plain", "txt", metadata)
}

// extractExif pulls the allow-listed tags, in a fixed order, from JPEG data.
// Absent or unreadable EXIF is not an error.
func extractExif(data []byte) [][2]string {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	var out [][2]string
	for _, f := range exifFields {
		tag, err := x.Get(f.tag)
		if err != nil {
			continue
		}
		out = append(out, [2]string{f.label, strings.Trim(tag.String(), `"`)})
	}
	return out
}
