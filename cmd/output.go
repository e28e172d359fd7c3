package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// writeResult marshals v to the configured output path, or stdout when no
// path is set.
func writeResult(v any) error {
	var (
		data []byte
		err  error
	)
	if cfg.Output.Pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return eris.Wrap(err, "marshal result")
	}
	data = append(data, '\n')

	if cfg.Output.Path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(cfg.Output.Path, data, 0644); err != nil {
		return eris.Wrapf(err, "write %s", cfg.Output.Path)
	}
	zap.L().Info("results written", zap.String("path", cfg.Output.Path))
	return nil
}
