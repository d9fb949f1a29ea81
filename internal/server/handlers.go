package server

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/brightness-tools-mcp/internal/brightness"
	"github.com/ironsheep/brightness-tools-mcp/internal/imaging"
	"github.com/ironsheep/brightness-tools-mcp/internal/logging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_equalize_brightness").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the appropriate imaging/brightness function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_preview":
		return s.handleImagePreview(args)

	// Brightness Equalization
	case "image_equalize_brightness":
		return s.handleEqualizeBrightness(args)
	case "image_patch_size":
		return s.handlePatchSize(args)

	// Analysis Helpers
	case "image_compare_regions":
		return s.handleImageCompareRegions(args)
	case "image_delta":
		return s.handleImageDelta(args)
	case "image_darken_gradient":
		return s.handleDarkenGradient(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments into v, treating a missing argument
// object as empty.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func requirePath(name, path string) error {
	if path == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imagePreviewArgs struct {
	Path   string          `json:"path"`
	Region *imaging.Region `json:"region"`
	MaxDim *int            `json:"max_dim"`
}

func (s *Server) handleImagePreview(args json.RawMessage) (interface{}, error) {
	var a imagePreviewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	maxDim := 512
	if a.MaxDim != nil {
		maxDim = *a.MaxDim
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Preview(img, a.Region, maxDim)
}

// === Brightness Equalization Handlers ===

type equalizeArgs struct {
	Path                string   `json:"path"`
	OutputPath          string   `json:"output_path"`
	Mode                *string  `json:"mode"`
	SimilarityThreshold *float64 `json:"similarity_threshold"`
	DifferenceThreshold *float64 `json:"difference_threshold"`
	RandomSamples       *int     `json:"random_samples"`
	BrightenOnly        *bool    `json:"brighten_only"`
	Seed                *uint64  `json:"seed"`
	PatchWidth          *int     `json:"patch_width"`
	PatchHeight         *int     `json:"patch_height"`
	Preview             bool     `json:"preview"`
}

// config overlays the supplied arguments on base.
func (a *equalizeArgs) config(base brightness.Config) brightness.Config {
	cfg := base
	if a.Mode != nil {
		cfg.Mode = brightness.Mode(*a.Mode)
	}
	if a.SimilarityThreshold != nil {
		cfg.SimilarityThreshold = *a.SimilarityThreshold
	}
	if a.DifferenceThreshold != nil {
		cfg.DifferenceThreshold = *a.DifferenceThreshold
	}
	if a.RandomSamples != nil {
		cfg.RandomSamples = *a.RandomSamples
	}
	if a.BrightenOnly != nil {
		cfg.BrightenOnly = *a.BrightenOnly
	}
	if a.Seed != nil {
		cfg.Seed = *a.Seed
	}
	if a.PatchWidth != nil {
		cfg.Search.PatchWidth = *a.PatchWidth
	}
	if a.PatchHeight != nil {
		cfg.Search.PatchHeight = *a.PatchHeight
	}
	return cfg
}

// EqualizeResult is returned by image_equalize_brightness.
type EqualizeResult struct {
	OutputPath          string                 `json:"output_path"`
	Width               int                    `json:"width"`
	Height              int                    `json:"height"`
	PatchWidth          int                    `json:"patch_width"`
	PatchHeight         int                    `json:"patch_height"`
	Passes              []brightness.PassStats `json:"passes"`
	MeanLightnessBefore float64                `json:"mean_lightness_before"`
	MeanLightnessAfter  float64                `json:"mean_lightness_after"`
	Preview             *imaging.PreviewResult `json:"preview,omitempty"`
}

func (s *Server) handleEqualizeBrightness(args json.RawMessage) (interface{}, error) {
	var a equalizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}

	out := a.OutputPath
	if out == "" {
		out = imaging.OutputPath(a.Path)
	}
	if err := imaging.CheckWritable(out); err != nil {
		return nil, err
	}

	e, err := brightness.New(a.config(s.cfg), brightness.WithLogger(logging.Component(s.log, "equalizer")))
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := e.Run(img)
	if err != nil {
		return nil, err
	}

	if err := imaging.Save(res.Image, out); err != nil {
		return nil, err
	}
	s.cache.Evict(out)

	result := &EqualizeResult{
		OutputPath:          out,
		Width:               res.Image.Width,
		Height:              res.Image.Height,
		PatchWidth:          res.PatchWidth,
		PatchHeight:         res.PatchHeight,
		Passes:              res.Passes,
		MeanLightnessBefore: res.MeanLightnessBefore,
		MeanLightnessAfter:  res.MeanLightnessAfter,
	}
	if a.Preview {
		if result.Preview, err = imaging.Preview(res.Image, nil, 512); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type patchSizeArgs struct {
	Path                string   `json:"path"`
	SimilarityThreshold *float64 `json:"similarity_threshold"`
	Samples             *int     `json:"samples"`
	Seed                *uint64  `json:"seed"`
}

// PatchSizeResult is returned by image_patch_size.
type PatchSizeResult struct {
	PatchWidth  int                     `json:"patch_width"`
	PatchHeight int                     `json:"patch_height"`
	Steps       []brightness.SearchStep `json:"steps"`
}

func (s *Server) handlePatchSize(args json.RawMessage) (interface{}, error) {
	var a patchSizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}

	cfg := s.cfg
	if a.SimilarityThreshold != nil {
		cfg.SimilarityThreshold = *a.SimilarityThreshold
	}
	if a.Samples != nil {
		cfg.Search.Samples = *a.Samples
	}
	if a.Seed != nil {
		cfg.Seed = *a.Seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	ig, err := brightness.NewIntegral(img)
	if err != nil {
		return nil, err
	}
	whole, ok := brightness.ColorVectorOf(img)
	if !ok {
		return nil, fmt.Errorf("image %q has no usable colour statistics (all black)", a.Path)
	}

	result := &PatchSizeResult{}
	record := func(step brightness.SearchStep) {
		result.Steps = append(result.Steps, step)
	}
	rng := brightness.NewRand(cfg.Seed)
	result.PatchWidth, result.PatchHeight = brightness.FindPatchDimensions(
		ig, whole, cfg.SimilarityThreshold, cfg.Search, rng, record)
	return result, nil
}

// === Analysis Helper Handlers ===

type imageCompareRegionsArgs struct {
	Path    string         `json:"path"`
	Region1 imaging.Region `json:"region1"`
	Region2 imaging.Region `json:"region2"`
}

// RegionStats describes one region in an image_compare_regions result.
type RegionStats struct {
	Region          imaging.Region         `json:"region"`
	Vector          brightness.ColorVector `json:"color_vector"`
	ImageSimilarity float64                `json:"image_similarity"`
	ImageDistance   float64                `json:"image_distance"`
}

// CompareRegionsResult is returned by image_compare_regions.
type CompareRegionsResult struct {
	Region1    RegionStats `json:"region1"`
	Region2    RegionStats `json:"region2"`
	Similarity float64     `json:"similarity"`
	Distance   float64     `json:"distance"`
}

func (s *Server) handleImageCompareRegions(args json.RawMessage) (interface{}, error) {
	var a imageCompareRegionsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	ig, err := brightness.NewIntegral(img)
	if err != nil {
		return nil, err
	}
	whole, _ := brightness.ColorVectorOf(img)

	stats := func(name string, r imaging.Region) (RegionStats, error) {
		v, ok := ig.ColorVector(brightness.Patch{X1: r.X1, Y1: r.Y1, X2: r.X2, Y2: r.Y2})
		if !ok {
			return RegionStats{}, fmt.Errorf("%s (%d,%d)-(%d,%d) is empty or black", name, r.X1, r.Y1, r.X2, r.Y2)
		}
		sim, dist := brightness.Compare(v, whole)
		return RegionStats{Region: r, Vector: v, ImageSimilarity: sim, ImageDistance: dist}, nil
	}

	r1, err := stats("region1", a.Region1)
	if err != nil {
		return nil, err
	}
	r2, err := stats("region2", a.Region2)
	if err != nil {
		return nil, err
	}
	sim, dist := brightness.Compare(r1.Vector, r2.Vector)
	return &CompareRegionsResult{Region1: r1, Region2: r2, Similarity: sim, Distance: dist}, nil
}

type imageDeltaArgs struct {
	PathA string `json:"path_a"`
	PathB string `json:"path_b"`
}

func (s *Server) handleImageDelta(args json.RawMessage) (interface{}, error) {
	var a imageDeltaArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path_a", a.PathA); err != nil {
		return nil, err
	}
	if err := requirePath("path_b", a.PathB); err != nil {
		return nil, err
	}
	imgA, err := s.cache.Load(a.PathA)
	if err != nil {
		return nil, err
	}
	imgB, err := s.cache.Load(a.PathB)
	if err != nil {
		return nil, err
	}
	return imaging.Delta(imgA, imgB)
}

type darkenGradientArgs struct {
	Path         string   `json:"path"`
	OutputPath   string   `json:"output_path"`
	Step         *int     `json:"step"`
	MaxIntensity *float64 `json:"max_intensity"`
}

// DarkenResult is returned by image_darken_gradient.
type DarkenResult struct {
	OutputPath string `json:"output_path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

func (s *Server) handleDarkenGradient(args json.RawMessage) (interface{}, error) {
	var a darkenGradientArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	if err := requirePath("output_path", a.OutputPath); err != nil {
		return nil, err
	}
	if err := imaging.CheckWritable(a.OutputPath); err != nil {
		return nil, err
	}
	step, maxIntensity := 20, 70.0
	if a.Step != nil {
		step = *a.Step
	}
	if a.MaxIntensity != nil {
		maxIntensity = *a.MaxIntensity
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	out, err := imaging.DarkenGradient(img, step, maxIntensity)
	if err != nil {
		return nil, err
	}
	if err := imaging.Save(out, a.OutputPath); err != nil {
		return nil, err
	}
	s.cache.Evict(a.OutputPath)
	return &DarkenResult{OutputPath: a.OutputPath, Width: out.Width, Height: out.Height}, nil
}
