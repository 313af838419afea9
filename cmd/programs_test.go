package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianlending/underwrite/internal/program"
)

func TestFormatProgramList(t *testing.T) {
	var b strings.Builder
	formatProgramList(&b)
	out := b.String()

	assert.Contains(t, out, "ID")
	for _, id := range program.IDs() {
		assert.Contains(t, out, id)
	}
}

func TestFormatProgramDetail(t *testing.T) {
	p, err := program.Get(program.SBA7a)
	require.NoError(t, err)

	var b strings.Builder
	formatProgramDetail(&b, p)
	out := b.String()

	assert.Contains(t, out, p.Name)
	assert.Contains(t, out, "(sba_7a)")
	assert.Contains(t, out, "Structuring rules:")
	assert.Contains(t, out, "Required documents:")
	assert.Contains(t, out, "Standard fees:")
	assert.Contains(t, out, "Compliance checks:")
}

func TestProgramsCommandArgs(t *testing.T) {
	assert.NotNil(t, programsCmd.Args)
	assert.NoError(t, programsCmd.Args(programsCmd, nil))
	assert.NoError(t, programsCmd.Args(programsCmd, []string{"sba_7a"}))
	assert.Error(t, programsCmd.Args(programsCmd, []string{"a", "b"}))
}
