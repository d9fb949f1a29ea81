// Package server implements the MCP (Model Context Protocol) server for the
// brightness tools.
//
// This package provides a JSON-RPC 2.0 server that exposes brightness
// equalization and its supporting image operations through the MCP protocol.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//   - image_preview: Base64 PNG of the image or a region, downscaled
//
// Brightness Equalization:
//   - image_equalize_brightness: Equalize an image and write the result
//   - image_patch_size: Run only the adaptive patch size search
//
// Analysis Helpers:
//   - image_compare_regions: Colour-vector similarity of two regions
//   - image_delta: Median-based difference of two images
//   - image_darken_gradient: Write a synthetically darkened copy
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path and reused across multiple tool calls. Files written by a tool are
// evicted so later calls see the new content.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(server.WithLogger(log))
//	if err := srv.Run(); err != nil {
//	    log.Fatal().Err(err).Msg("server error")
//	}
package server
