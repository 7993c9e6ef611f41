/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/
package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mweibel/commodore/pkg/compile"
	apperrors "github.com/mweibel/commodore/pkg/errors"
)

func TestServe_MissingConfiguration(t *testing.T) {
	t.Setenv("INVENTORY_DIR", t.TempDir())
	t.Setenv("WORK_DIR", "")
	t.Setenv("ENGINE", "")

	err := Serve()
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfig))
}

func TestRunnerOptions_Defaults(t *testing.T) {
	t.Setenv("INVENTORY_DIR", "/inv")
	t.Setenv("WORK_DIR", "/work")
	t.Setenv("ENGINE", "kustomize")
	t.Setenv("ENGINE_ARGS", "build --enable-helm")
	t.Setenv("CATALOG_PUSH", "")
	t.Setenv("CONCURRENCY", "8")

	var cfg compile.Config
	for _, opt := range runnerOptions() {
		opt(&cfg)
	}

	assert.Equal(t, "/inv", cfg.InventoryDir)
	assert.Equal(t, "/work", cfg.WorkDir)
	assert.Equal(t, "kustomize", cfg.Engine)
	assert.Equal(t, []string{"build", "--enable-helm"}, cfg.EngineArgs)
	assert.True(t, cfg.Push)
	assert.Equal(t, 8, cfg.Concurrency)
}

func TestRunnerOptions_PushDisabled(t *testing.T) {
	t.Setenv("CATALOG_PUSH", "false")

	var cfg compile.Config
	for _, opt := range runnerOptions() {
		opt(&cfg)
	}
	assert.False(t, cfg.Push)
}
