package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/krishi-mitra/internal/flows"
	"github.com/ziadkadry99/krishi-mitra/internal/schema"
)

// flowTool builds the tool definition for a flow. Each input field becomes a
// tool parameter; optional fields are not marked required.
func flowTool(info flows.Info) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(info.Description)}
	for _, f := range info.Input {
		opts = append(opts, fieldOption(f))
	}
	return mcp.NewTool(info.Name, opts...)
}

func fieldOption(f schema.Field) mcp.ToolOption {
	props := []mcp.PropertyOption{mcp.Description(f.Description)}
	if !f.Optional {
		props = append(props, mcp.Required())
	}

	switch f.Kind {
	case schema.KindNumber, schema.KindInteger:
		return mcp.WithNumber(f.Name, props...)
	case schema.KindBoolean:
		return mcp.WithBoolean(f.Name, props...)
	case schema.KindEnum:
		return mcp.WithString(f.Name, append(props, mcp.Enum(f.Enum...))...)
	case schema.KindArray:
		if f.Items != nil {
			props = append(props, mcp.Items(schema.FieldSchema(*f.Items)))
		}
		return mcp.WithArray(f.Name, props...)
	case schema.KindObject:
		if p, ok := schema.FieldSchema(f)["properties"].(map[string]any); ok {
			props = append(props, mcp.Properties(p))
		}
		return mcp.WithObject(f.Name, props...)
	}
	return mcp.WithString(f.Name, props...)
}
