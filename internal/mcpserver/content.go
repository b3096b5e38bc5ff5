package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/inscribe/internal/checksum"
)

const maxContentSize = 10 << 20 // 10 MB

func (s *Server) storeContent(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var data []byte
	if uri := req.GetString("data_uri", ""); uri != "" {
		var err error
		if data, err = decodeDataURI(uri); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	} else {
		data = []byte(req.GetString("content", ""))
	}
	if len(data) == 0 {
		return mcp.NewToolResultError("content or data_uri is required"), nil
	}
	if len(data) > maxContentSize {
		return mcp.NewToolResultError(fmt.Sprintf("content too large: %d bytes (max %d)", len(data), maxContentSize)), nil
	}

	existed, err := s.blobs.Has(checksum.Pointer(data))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store content: %v", err)), nil
	}
	ptr, size, err := s.blobs.Put(bytes.NewReader(data))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store content: %v", err)), nil
	}
	return jsonResult(map[string]any{"content_pointer": ptr, "size": size, "existed": existed}), nil
}

// decodeDataURI parses a data:[<mediatype>];base64,<data> URI. The media type
// is not recorded; pointers address bytes only.
func decodeDataURI(uri string) ([]byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, fmt.Errorf("invalid data URI: missing data: prefix")
	}
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("invalid data URI: missing comma separator")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	return data, nil
}
