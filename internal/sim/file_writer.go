package sim

import (
	"encoding/json"
	"os"

	"swarmlink-sim/internal/telemetry"
)

// FileWriter writes frames, state rows and attack events to JSONL files.
type FileWriter struct {
	frameFile *os.File
	stateFile *os.File
	eventFile *os.File
	frameEnc  *json.Encoder
	stateEnc  *json.Encoder
	eventEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. statePath or eventPath may be empty to skip those logs.
func NewFileWriter(framePath, statePath, eventPath string) (*FileWriter, error) {
	ff, err := os.Create(framePath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{frameFile: ff, frameEnc: json.NewEncoder(ff)}
	if statePath != "" {
		sf, err := os.Create(statePath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.stateFile = sf
		fw.stateEnc = json.NewEncoder(sf)
	}
	if eventPath != "" {
		ef, err := os.Create(eventPath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.eventFile = ef
		fw.eventEnc = json.NewEncoder(ef)
	}
	return fw, nil
}

// WriteFrame logs a single frame.
func (f *FileWriter) WriteFrame(row telemetry.FrameRow) error {
	return f.frameEnc.Encode(row)
}

// WriteState logs a swarm state row, if enabled.
func (f *FileWriter) WriteState(row telemetry.SwarmStateRow) error {
	if f.stateEnc == nil {
		return nil
	}
	return f.stateEnc.Encode(row)
}

// WriteStates logs multiple swarm state rows.
func (f *FileWriter) WriteStates(rows []telemetry.SwarmStateRow) error {
	for _, r := range rows {
		if err := f.WriteState(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteAttackEvent logs an attack event, if enabled.
func (f *FileWriter) WriteAttackEvent(e telemetry.AttackEventRow) error {
	if f.eventEnc == nil {
		return nil
	}
	return f.eventEnc.Encode(e)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, file := range []*os.File{f.frameFile, f.stateFile, f.eventFile} {
		if file == nil {
			continue
		}
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
