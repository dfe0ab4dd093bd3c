package batch

import (
	"github.com/metalagman/firmgen/internal/assemble"
	"github.com/metalagman/firmgen/internal/pipeline"
)

func assembleResult(in pipeline.Input) assemble.Result {
	return assemble.Result{Dir: in.OutputDir, Files: []string{"main.ino"}}
}
