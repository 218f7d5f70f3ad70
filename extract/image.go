package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dalilchat/dalil/llm"
)

// Image extraction modes.
const (
	ImageModeText        = "text"        // OCR-style transcription
	ImageModeDescription = "description" // visual description
	ImageModeAuto        = "auto"        // classify first, then pick
)

const textExtractionPrompt = `Extract all text visible in this image exactly as written. ` +
	`Keep the original language (Arabic text stays Arabic), preserve line ` +
	`breaks and reading order, and transcribe tables row by row. Output ` +
	`only the extracted text with no commentary.`

const descriptionPrompt = `Describe this image in detail: the overall scene, any objects, ` +
	`people, charts or diagrams, and what they convey. If the image ` +
	`contains Arabic text, include it verbatim. Answer in the dominant ` +
	`language of the image, defaulting to Arabic.`

const autoDetectionPrompt = `Look at this image and answer with exactly one word. ` +
	`Reply TEXT_DOCUMENT if it is primarily a document, page, receipt, ` +
	`sign, or screenshot whose value is its text. Reply VISUAL_CONTENT ` +
	`if it is primarily a photo, chart, diagram, or scene.`

const visionTimeout = 30 * time.Second

// ImageExtractor sends images to a vision model. In auto mode a cheap
// classification call decides between transcription and description.
type ImageExtractor struct {
	vision llm.VisionProvider
	mode   string
}

// NewImageExtractor wires a vision provider into the registry. Mode is
// one of the ImageMode constants; empty means auto.
func NewImageExtractor(vision llm.VisionProvider, mode string) *ImageExtractor {
	if mode == "" {
		mode = ImageModeAuto
	}
	return &ImageExtractor{vision: vision, mode: mode}
}

func (e *ImageExtractor) Formats() []string { return ImageFormats }

func (e *ImageExtractor) Extract(ctx context.Context, name string, data []byte) (*Result, error) {
	if e.vision == nil {
		return nil, fmt.Errorf("image extraction requires a vision provider")
	}

	format := sniffMagic(data)
	if format == "" {
		return nil, fmt.Errorf("unrecognized image data")
	}

	pages := [][]byte{data}
	var warnings []string
	if format == "tiff" {
		split, err := SplitTIFFPages(data)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("tiff page split failed, using first page only: %v", err))
		} else {
			pages = split
		}
	}

	mime := imageMIME(format)
	var blocks []Block
	for i, page := range pages {
		text, blockType, err := e.extractOne(ctx, mime, page)
		if err != nil {
			if len(pages) == 1 {
				return nil, err
			}
			warnings = append(warnings, fmt.Sprintf("page %d: %v", i+1, err))
			continue
		}
		if text == "" {
			continue
		}
		blocks = append(blocks, Block{Text: text, Type: blockType, Page: i + 1})
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("vision model returned no text for %s", name)
	}

	return &Result{
		Format: format,
		Docs: []Doc{{
			Name:   name,
			Blocks: blocks,
			Metadata: map[string]any{
				"extraction_mode": e.mode,
				"pages":           len(pages),
			},
		}},
		Warnings: warnings,
	}, nil
}

func (e *ImageExtractor) extractOne(ctx context.Context, mime string, data []byte) (string, string, error) {
	mode := e.mode
	if mode == ImageModeAuto {
		detected, err := e.classify(ctx, mime, data)
		if err != nil {
			return "", "", err
		}
		mode = detected
	}

	prompt := textExtractionPrompt
	blockType := BlockImageText
	if mode == ImageModeDescription {
		prompt = descriptionPrompt
		blockType = BlockImageDescription
	}

	vctx, cancel := context.WithTimeout(ctx, visionTimeout)
	defer cancel()
	out, err := e.vision.GenerateVision(vctx, prompt, []llm.ImageInput{{MIME: mime, Data: data}})
	if err != nil {
		return "", "", fmt.Errorf("vision extraction: %w", err)
	}
	return strings.TrimSpace(out), blockType, nil
}

// classify asks the model whether the image is a text document or visual
// content. Unrecognized replies fall back to transcription, which degrades
// more gracefully than a wrong description.
func (e *ImageExtractor) classify(ctx context.Context, mime string, data []byte) (string, error) {
	vctx, cancel := context.WithTimeout(ctx, visionTimeout)
	defer cancel()
	out, err := e.vision.GenerateVision(vctx, autoDetectionPrompt, []llm.ImageInput{{MIME: mime, Data: data}})
	if err != nil {
		return "", fmt.Errorf("image classification: %w", err)
	}
	if strings.Contains(strings.ToUpper(out), "VISUAL_CONTENT") {
		return ImageModeDescription, nil
	}
	return ImageModeText, nil
}

func imageMIME(format string) string {
	switch format {
	case "jpg":
		return "image/jpeg"
	case "tiff":
		return "image/tiff"
	default:
		return "image/" + format
	}
}
