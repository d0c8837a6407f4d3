package storage

import (
	"math"
	"strings"
	"testing"

	"github.com/annel0/parkour-course/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecord(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"checkpointPosition":{"x":1,"y":11.5,"z":-8}}`))
	require.NoError(t, err)
	assert.Equal(t, vec.Vec3Float{X: 1, Y: 11.5, Z: -8}, rec.CheckpointPosition)

	// Нулевые координаты допустимы, это не отсутствие поля
	rec, err = DecodeRecord([]byte(`{"checkpointPosition":{"x":0,"y":0,"z":0}}`))
	require.NoError(t, err)
	assert.Equal(t, vec.Vec3Float{}, rec.CheckpointPosition)
}

func TestDecodeRecord_Corrupt(t *testing.T) {
	inputs := []string{
		``,
		`not json`,
		`{}`,
		`{"checkpointPosition":null}`,
		`{"checkpointPosition":{"x":1,"y":2}}`,
		`{"checkpointPosition":{"x":"1","y":2,"z":3}}`,
		`{"checkpointPosition":{"x":1,"y":null,"z":3}}`,
		`{"checkpointPosition":[1,2,3]}`,
	}
	for _, in := range inputs {
		_, err := DecodeRecord([]byte(in))
		assert.ErrorIs(t, err, ErrCorruptRecord, "вход %q", in)
	}
}

func TestEncodeRecord(t *testing.T) {
	data, err := EncodeRecord(Record{CheckpointPosition: vec.Vec3Float{X: 2, Y: 3, Z: 4}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"checkpointPosition":{"x":2,"y":3,"z":4}}`, string(data))

	_, err = EncodeRecord(Record{CheckpointPosition: vec.Vec3Float{X: math.NaN()}})
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestValidatePlayerID(t *testing.T) {
	assert.NoError(t, ValidatePlayerID("player-1"))
	assert.ErrorIs(t, ValidatePlayerID(""), ErrInvalidPlayerID)
	assert.ErrorIs(t, ValidatePlayerID("   "), ErrInvalidPlayerID)
	assert.ErrorIs(t, ValidatePlayerID(strings.Repeat("a", MaxPlayerIDLength+1)), ErrInvalidPlayerID)
}
