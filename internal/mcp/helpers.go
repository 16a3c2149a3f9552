package mcp

import (
	"encoding/json"
	"fmt"
	"math"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// toResult renders a handler response as indented JSON text. Handler errors become tool errors.
func toResult(data map[string]interface{}, err error) (*sdk.CallToolResult, any, error) {
	if err != nil {
		log.Error().Err(err).Msg("Tool call failed")
		return &sdk.CallToolResult{
			IsError: true,
			Content: []sdk.Content{&sdk.TextContent{Text: err.Error()}},
		}, nil, nil
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: string(out)}},
	}, nil, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
