package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func regionProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x1": map[string]interface{}{"type": "integer"},
			"y1": map[string]interface{}{"type": "integer"},
			"x2": map[string]interface{}{"type": "integer"},
			"y2": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, channel count and format, and whether it can be brightness-equalized (3 colour channels).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_preview",
			Description: "Return an image, or a rectangular region of it, as base64-encoded PNG, downscaled so the longer side is at most max_dim.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty("Absolute path to the image file"),
					"region": regionProperty("Optional region to extract, x2/y2 exclusive"),
					"max_dim": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side of the returned image in pixels, 0 keeps full size. Default 512",
						"default":     512,
					},
				},
				"required": []string{"path"},
			},
		},

		// Brightness Equalization
		{
			Name: "image_equalize_brightness",
			Description: "Even out uneven exposure. Patches whose colour statistics are similar to the whole image " +
				"have their Lab lightness pulled toward the image mean with a ramping damping factor. " +
				"Writes the corrected image and reports the patch size and per-pass correction counts.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty("Absolute path to the input image (3 colour channels)"),
					"output_path": pathProperty("Where to write the result. Default <stem>_output<ext> next to the input"),
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"RANDOM", "RASTER", "BOTH"},
						"description": "Patch traversal. Default RANDOM",
						"default":     "RANDOM",
					},
					"similarity_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Patches must be strictly more similar than this (0 to 13.8). Default 7.5",
						"default":     7.5,
					},
					"difference_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Patches must differ by strictly more than this colour-vector distance. Default 0",
						"default":     0.0,
					},
					"random_samples": map[string]interface{}{
						"type":        "integer",
						"description": "Patches drawn in RANDOM mode; also sets the damping ramp. Default 10000",
						"default":     10000,
					},
					"brighten_only": map[string]interface{}{
						"type":        "boolean",
						"description": "Never darken a patch. Default false",
						"default":     false,
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Random seed. Default 1",
						"default":     1,
					},
					"patch_width": map[string]interface{}{
						"type":        "integer",
						"description": "Fixed patch width; with patch_height skips the patch size search",
					},
					"patch_height": map[string]interface{}{
						"type":        "integer",
						"description": "Fixed patch height; with patch_width skips the patch size search",
					},
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a base64 PNG preview of the result. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_patch_size",
			Description: "Run only the adaptive patch size search and report every candidate size with its minimum sampled similarity.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"similarity_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Minimum similarity every sample must reach. Default 7.5",
						"default":     7.5,
					},
					"samples": map[string]interface{}{
						"type":        "integer",
						"description": "Random samples per candidate size. Default 1000",
						"default":     1000,
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Random seed. Default 1",
						"default":     1,
					},
				},
				"required": []string{"path"},
			},
		},

		// Analysis Helpers
		{
			Name:        "image_compare_regions",
			Description: "Compare the colour statistics (per-channel mean and standard deviation) of two regions and of each region against the whole image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty("Absolute path to the image file"),
					"region1": regionProperty("First region, x2/y2 exclusive"),
					"region2": regionProperty("Second region, x2/y2 exclusive"),
				},
				"required": []string{"path", "region1", "region2"},
			},
		},
		{
			Name:        "image_delta",
			Description: "Compare two images by per-channel medians: mean absolute median difference and colour similarity of the median vectors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path_a": pathProperty("Absolute path to the first image"),
					"path_b": pathProperty("Absolute path to the second image"),
				},
				"required": []string{"path_a", "path_b"},
			},
		},
		{
			Name:        "image_darken_gradient",
			Description: "Write a copy of an image darkened by a stepped falloff toward the bottom-right corner, for testing equalization.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty("Absolute path to the input image"),
					"output_path": pathProperty("Absolute path of the darkened image"),
					"step": map[string]interface{}{
						"type":        "integer",
						"description": "Band size in pixels. Default 20",
						"default":     20,
					},
					"max_intensity": map[string]interface{}{
						"type":        "number",
						"description": "Darkening of the last row band and of the last column band. Default 70",
						"default":     70.0,
					},
				},
				"required": []string{"path", "output_path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
