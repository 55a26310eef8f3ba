// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bytes"
	"context"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommandLine(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantErr    error
		wantOutput string
	}{
		{name: "no command", args: nil, wantErr: errUsage, wantOutput: "no command given"},
		{name: "unknown command", args: []string{"sync"}, wantErr: errUsage, wantOutput: `unknown command: "sync"`},
		{name: "push resource without domain", args: []string{"push-resource"}, wantErr: errUsage},
		{name: "help", args: []string{"-h"}, wantErr: flag.ErrHelp, wantOutput: "usage: txsync"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer

			err := run(context.Background(), tt.args, &stderr)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, stderr.String(), tt.wantOutput)
		})
	}
}
