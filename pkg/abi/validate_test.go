package abi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		table    *Table
		wantKind Kind
		wantErr  error
		wantPos  int
		wantMsg  string
	}{
		{
			name:  "valid",
			table: New(Returning("open"), Void("close")),
		},
		{
			name:  "underscores and digits",
			table: New(Returning("_private"), Returning("read2"), Void("A_b_9")),
		},
		{
			name:     "empty table",
			table:    New(),
			wantKind: KindEmptyTable,
			wantErr:  ErrEmptyTable,
			wantPos:  -1,
			wantMsg:  "syscall table is empty",
		},
		{
			name:     "nil table",
			table:    nil,
			wantKind: KindEmptyTable,
			wantErr:  ErrEmptyTable,
			wantPos:  -1,
		},
		{
			name:     "empty name",
			table:    New(Returning("open"), Returning("")),
			wantKind: KindEmptyName,
			wantErr:  ErrEmptyName,
			wantPos:  1,
			wantMsg:  `invalid syscall name "" at position 1`,
		},
		{
			name:     "leading digit",
			table:    New(Returning("9lives")),
			wantKind: KindEmptyName,
			wantErr:  ErrEmptyName,
			wantPos:  0,
		},
		{
			name:     "dash",
			table:    New(Returning("list-dir")),
			wantKind: KindEmptyName,
			wantErr:  ErrEmptyName,
			wantPos:  0,
		},
		{
			name:     "non-ascii letter",
			table:    New(Returning("öffnen")),
			wantKind: KindEmptyName,
			wantErr:  ErrEmptyName,
			wantPos:  0,
		},
		{
			name:     "duplicate",
			table:    New(Returning("a"), Void("a")),
			wantKind: KindDuplicateName,
			wantErr:  ErrDuplicateName,
			wantPos:  1,
			wantMsg:  `duplicate syscall name "a" at positions 0 and 1`,
		},
		{
			name:     "first duplicate wins",
			table:    New(Returning("x"), Returning("y"), Returning("y"), Returning("x")),
			wantKind: KindDuplicateName,
			wantErr:  ErrDuplicateName,
			wantPos:  2,
			wantMsg:  `"y" at positions 1 and 2`,
		},
		{
			name:     "case sensitive names are distinct",
			table:    New(Returning("open"), Returning("Open")),
			wantKind: 0,
		},
		{
			name:     "bad name before later duplicate",
			table:    New(Returning("a"), Returning("b c"), Returning("a")),
			wantKind: KindEmptyName,
			wantErr:  ErrEmptyName,
			wantPos:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.table)
			if tt.wantKind == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantKind, verr.Kind)
			assert.Equal(t, tt.wantPos, verr.Position)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidate_DuplicatePositions(t *testing.T) {
	err := Validate(New(Returning("a"), Void("a")))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "a", verr.Name)
	assert.Equal(t, 0, verr.FirstPosition)
	assert.Equal(t, 1, verr.Position)
	assert.NotErrorIs(t, err, ErrEmptyName)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "EmptyTable", KindEmptyTable.String())
	assert.Equal(t, "EmptyName", KindEmptyName.String())
	assert.Equal(t, "DuplicateName", KindDuplicateName.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestCheckAppendOnly(t *testing.T) {
	base := New(Returning("open"), Void("close"))

	tests := []struct {
		name    string
		next    *Table
		wantErr string
	}{
		{name: "identical", next: New(Returning("open"), Void("close"))},
		{name: "append", next: New(Returning("open"), Void("close"), Returning("read"))},
		{name: "rename", next: New(Returning("open"), Void("shut")), wantErr: `syscall 1 was "close", now "shut"`},
		{name: "reorder", next: New(Void("close"), Returning("open")), wantErr: `syscall 0 was "open", now "close"`},
		{name: "trait change", next: New(Returning("open"), Returning("close")), wantErr: "return value changed from false to true"},
		{name: "removal", next: New(Returning("open")), wantErr: "1 syscall(s) removed starting at 1 (close)"},
		{name: "removal in the middle", next: New(Void("close")), wantErr: `syscall 0 was "open"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAppendOnly(base, tt.next)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrBreakingChange)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
