package algorithm

import (
	"encoding/json"
	"io"
)

// Result is the status record an algorithm reports upon success.
type Result struct {
	Message string `json:"Result"`
}

func NewResult(msg string) Result { return Result{Message: msg} }

// PrintResult writes the result as JSON, e.g. {"Result":"Styles uploaded"}
func PrintResult(w io.Writer, result Result) error {
	return json.NewEncoder(w).Encode(result)
}
