// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rollstore

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/rollcall/rollmatch"
)

// Roll file formats accepted by Decode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

var ErrUnknownFormat = errors.New("unknown roll file format")

// rollFile is the wrapped form of JSON and YAML roll files:
//
//	records:
//	  - voter_id_number: KL/01/001/000123
//	    full_name: Asha Rao
type rollFile struct {
	Records []rollmatch.RollRecord `json:"records" yaml:"records"`
}

// LoadFile reads a roll file, picking the format from its extension.
func LoadFile(path string) ([]rollmatch.RollRecord, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roll file: %w", err)
	}
	defer f.Close()

	records, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// FormatFromPath maps a file extension to a roll file format.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// Decode parses roll records in the given format. JSON and YAML accept
// either a bare list or an object with a "records" list; CSV needs a
// header row using the JSON field names.
func Decode(r io.Reader, format string) ([]rollmatch.RollRecord, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(r)
	case FormatYAML:
		return decodeYAML(r)
	case FormatCSV:
		return decodeCSV(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func decodeJSON(r io.Reader) ([]rollmatch.RollRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var records []rollmatch.RollRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("invalid JSON roll: %w", err)
		}
		return records, nil
	}

	var file rollFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid JSON roll: %w", err)
	}
	return file.Records, nil
}

func decodeYAML(r io.Reader) ([]rollmatch.RollRecord, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid YAML roll: %w", err)
	}

	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var records []rollmatch.RollRecord
		if err := node.Decode(&records); err != nil {
			return nil, fmt.Errorf("invalid YAML roll: %w", err)
		}
		return records, nil
	}

	var file rollFile
	if err := node.Decode(&file); err != nil {
		return nil, fmt.Errorf("invalid YAML roll: %w", err)
	}
	return file.Records, nil
}

// csvFields binds CSV header names to record fields.
var csvFields = map[string]func(*rollmatch.RollRecord) *string{
	"national_id_number": func(r *rollmatch.RollRecord) *string { return &r.NationalIDNumber },
	"voter_id_number":    func(r *rollmatch.RollRecord) *string { return &r.VoterIDNumber },
	"full_name":          func(r *rollmatch.RollRecord) *string { return &r.FullName },
	"father_name":        func(r *rollmatch.RollRecord) *string { return &r.FatherName },
	"date_of_birth":      func(r *rollmatch.RollRecord) *string { return &r.DateOfBirth },
	"age":                func(r *rollmatch.RollRecord) *string { return &r.Age },
	"gender":             func(r *rollmatch.RollRecord) *string { return &r.Gender },
	"address_state":      func(r *rollmatch.RollRecord) *string { return &r.State },
	"address_district":   func(r *rollmatch.RollRecord) *string { return &r.District },
	"address_city":       func(r *rollmatch.RollRecord) *string { return &r.City },
	"full_address":       func(r *rollmatch.RollRecord) *string { return &r.FullAddress },
	"polling_booth":      func(r *rollmatch.RollRecord) *string { return &r.PollingBooth },
}

func decodeCSV(r io.Reader) ([]rollmatch.RollRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid CSV roll header: %w", err)
	}

	fields := make([]func(*rollmatch.RollRecord) *string, len(header))
	for i, name := range header {
		field, ok := csvFields[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown CSV column %q", name)
		}
		fields[i] = field
	}

	var records []rollmatch.RollRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid CSV roll: %w", err)
		}

		var rec rollmatch.RollRecord
		for i, value := range row {
			*fields[i](&rec) = value
		}
		records = append(records, rec)
	}

	return records, nil
}
