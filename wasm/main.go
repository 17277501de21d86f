//go:build js && wasm

// Command wasm exposes the pipeline to the browser:
//
//	GOOS=js GOARCH=wasm go build -o pixelbubble.wasm ./wasm
//
// and from JavaScript:
//
//	const r = pixelbubbleRender(uint8Array, 10, "pixel")
//	if (r.ok) img.src = r.dataUri
package main

import (
	"bytes"
	"context"
	"syscall/js"

	"github.com/kerosiinikone/pixelbubble/pipeline"
)

// session is shared by all calls so a slow, superseded render never
// overwrites a newer one.
var session = pipeline.NewSession(pipeline.DecodeOptions{}, pipeline.DefaultParameters(), nil)

func render(this js.Value, args []js.Value) any {
	if len(args) == 0 || args[0].IsNull() || args[0].IsUndefined() {
		return response(session.Upload(context.Background(), nil))
	}

	data := make([]byte, args[0].Get("length").Int())
	js.CopyBytesToGo(data, args[0])

	params := session.State().Params
	if len(args) > 1 && args[1].Type() == js.TypeNumber {
		params.BlockSize = args[1].Int()
	}
	if len(args) > 2 && args[2].Type() == js.TypeString {
		mode, err := pipeline.ParseMode(args[2].String())
		if err != nil {
			return response(pipeline.Result{Err: err})
		}
		params.Mode = mode
	}
	return response(session.UploadWith(context.Background(), bytes.NewReader(data), params))
}

// rerender re-renders the last upload at a new block size without decoding it.
func rerender(this js.Value, args []js.Value) any {
	if len(args) == 0 || args[0].Type() != js.TypeNumber {
		return response(pipeline.Result{Err: pipeline.ErrInvalidBlockSize})
	}
	return response(session.SetBlockSize(context.Background(), args[0].Int()))
}

func response(res pipeline.Result) map[string]any {
	out := map[string]any{
		"ok":        res.Err == nil,
		"requestId": float64(res.RequestID),
		"reason":    string(res.Reason()),
	}
	if res.Err != nil {
		out["error"] = res.Err.Error()
		return out
	}
	out["dataUri"] = res.Output.DataURI()
	out["filename"] = res.Output.Filename
	out["width"] = res.Output.Width
	out["height"] = res.Output.Height
	return out
}

func main() {
	js.Global().Set("pixelbubbleRender", js.FuncOf(render))
	js.Global().Set("pixelbubbleSetBlockSize", js.FuncOf(rerender))
	select {}
}
