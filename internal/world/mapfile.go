package world

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/annel0/parkour-course/internal/world/block"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// mapSchema описывает формат файла карты
const mapSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["blocks"],
  "properties": {
    "blockTypes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "properties": {
          "id":   {"type": "integer", "minimum": 0, "maximum": 65535},
          "name": {"type": "string"}
        }
      }
    },
    "blocks": {
      "type": "object",
      "patternProperties": {
        "^(0|-?[1-9][0-9]*),(0|-?[1-9][0-9]*),(0|-?[1-9][0-9]*)$": {"type": "integer", "minimum": 0, "maximum": 65535}
      },
      "additionalProperties": false
    }
  }
}`

var compiledMapSchema = jsonschema.MustCompileString("map.schema.json", mapSchema)

// BlockType описание типа блока в файле карты
type BlockType struct {
	ID   block.BlockID `json:"id"`
	Name string        `json:"name"`
}

// MapFile представляет файл карты на диске
type MapFile struct {
	BlockTypes []BlockType    `json:"blockTypes,omitempty"`
	Blocks     map[string]int `json:"blocks"`
}

// Map загруженная карта со структурными ключами
type Map struct {
	BlockTypes []BlockType
	Blocks     MapData
}

// LoadMapFile читает карту с диска. Поддерживаются .json, .json.gz и .json.zst.
// Имена типов блоков регистрируются в block-регистре.
func LoadMapFile(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("открытие карты %s: %w", path, err)
	}
	defer f.Close()

	r, closeFn, err := decompressor(path, f)
	if err != nil {
		return nil, fmt.Errorf("распаковка карты %s: %w", path, err)
	}
	defer closeFn()

	m, err := DecodeMap(r)
	if err != nil {
		return nil, fmt.Errorf("карта %s: %w", path, err)
	}

	for _, bt := range m.BlockTypes {
		block.Register(bt.ID, bt.Name)
	}
	return m, nil
}

// DecodeMap читает JSON карты, проверяет схему и переводит ключи в vec.Vec3
func DecodeMap(r io.Reader) (*Map, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("разбор JSON: %w", err)
	}
	if err := compiledMapSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("схема карты: %w", err)
	}

	var file MapFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("разбор карты: %w", err)
	}

	blocks := make(MapData, len(file.Blocks))
	for key, id := range file.Blocks {
		pos, err := ParseBlockKey(key)
		if err != nil {
			return nil, err
		}
		if _, dup := blocks[pos]; dup {
			return nil, fmt.Errorf("%w: %q повторяет координату %s", ErrInvalidBlockKey, key, pos)
		}
		blocks[pos] = block.BlockID(id)
	}

	return &Map{BlockTypes: file.BlockTypes, Blocks: blocks}, nil
}

// EncodeMap сериализует карту в формат файла
func EncodeMap(w io.Writer, m *Map) error {
	file := MapFile{
		BlockTypes: append([]BlockType(nil), m.BlockTypes...),
		Blocks:     make(map[string]int, len(m.Blocks)),
	}
	sort.Slice(file.BlockTypes, func(i, j int) bool { return file.BlockTypes[i].ID < file.BlockTypes[j].ID })
	for pos, id := range m.Blocks {
		file.Blocks[pos.String()] = int(id)
	}

	enc := json.NewEncoder(w)
	return enc.Encode(file)
}

// WriteMapFile записывает карту на диск, сжимая её по расширению файла
func WriteMapFile(path string, m *Map) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("создание файла карты: %w", err)
	}
	defer f.Close()

	var w io.WriteCloser
	switch {
	case strings.HasSuffix(path, ".gz"):
		w = gzip.NewWriter(f)
	case strings.HasSuffix(path, ".zst"):
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		w = enc
	default:
		w = nopWriteCloser{f}
	}

	if err := EncodeMap(w, m); err != nil {
		w.Close()
		return fmt.Errorf("запись карты: %w", err)
	}
	if err := w.Close(); err != nil {
		return err
	}
	return f.Sync()
}

// DefaultBlockTypes возвращает описание типов блоков по умолчанию
func DefaultBlockTypes() []BlockType {
	ids := []block.BlockID{
		block.StoneBlockID, block.GrassBlockID, block.SandBlockID,
		block.CheckpointBlockID, block.LavaBlockID,
		block.ConveyorForwardBlockID, block.ConveyorBackwardBlockID,
		block.ConveyorRightBlockID, block.ConveyorLeftBlockID,
	}
	types := make([]BlockType, 0, len(ids))
	for _, id := range ids {
		name, _ := block.Name(id)
		types = append(types, BlockType{ID: id, Name: name})
	}
	return types
}

func decompressor(path string, r io.Reader) (io.Reader, func(), error) {
	switch filepath.Ext(path) {
	case ".gz":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gz, func() { gz.Close() }, nil
	case ".zst":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	default:
		return r, func() {}, nil
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
