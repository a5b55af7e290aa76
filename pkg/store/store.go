// Package store persists the trained classifier, its label codec and its
// evaluation as a linked set of files in a model directory.
package store

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blang/semver"
	"github.com/flowguard/flowguard/pkg/evaluate"
	"github.com/flowguard/flowguard/pkg/forest"
	"github.com/flowguard/flowguard/pkg/labels"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"
)

// Fixed artifact filenames inside the model directory
const (
	ClassifierFile = "rf_model.json.zst"
	CodecFile      = "label_encoder.json"
	EvaluationFile = "evaluation.json"
)

// FormatVersion is the artifact layout written by this build. Artifacts with
// a different major version are refused.
var FormatVersion = semver.MustParse("1.0.0")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	// Store reads and writes artifacts in one directory
	Store struct {
		dir string
		log *log.Logger
	}

	// Header links the files written by one training run
	Header struct {
		Format       string    `json:"format"`
		RunID        uuid.UUID `json:"run_id"`
		CreatedAt    time.Time `json:"created_at"`
		CodecDigest  string    `json:"codec_digest"`
		SchemaDigest string    `json:"schema_digest"`
	}

	// Artifacts is the loaded (or about to be saved) model. It is not modified
	// after creation.
	Artifacts struct {
		header Header
		schema []string
		forest *forest.Forest
		codec  *labels.Codec
	}

	// Evaluation is the stored evaluation report of a run
	Evaluation struct {
		Header Header           `json:"header"`
		Report *evaluate.Report `json:"report"`
	}

	classifierFile struct {
		Header Header         `json:"header"`
		Schema []string       `json:"schema"`
		Forest *forest.Forest `json:"forest"`
	}

	codecFile struct {
		Header  Header   `json:"header"`
		Classes []string `json:"classes"`
	}

	// ArtifactError is returned when stored artifacts are missing, corrupt or
	// do not belong together
	ArtifactError struct {
		Path   string
		Reason string
		Err    error
	}
)

func (e *ArtifactError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("artifact %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("artifact %s: %s", e.Path, e.Reason)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// New returns a store rooted at dir
func New(dir string, logger *log.Logger) *Store {
	return &Store{dir: dir, log: logger}
}

// Directory returns the model directory
func (s *Store) Directory() string {
	return s.dir
}

// Path returns the location of an artifact file
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// NewArtifacts bundles a fitted forest with the schema and codec it was
// trained with under a fresh run id
func NewArtifacts(schema []string, model *forest.Forest, codec *labels.Codec) (*Artifacts, error) {
	if len(schema) == 0 {
		return nil, errors.New("feature schema is empty")
	}
	if model.NumFeatures() != len(schema) {
		return nil, fmt.Errorf("forest expects %d features but the schema has %d", model.NumFeatures(), len(schema))
	}
	if model.NumClasses() > codec.Len() {
		return nil, fmt.Errorf("forest predicts %d classes but the codec has %d", model.NumClasses(), codec.Len())
	}
	return &Artifacts{
		header: Header{
			Format:       FormatVersion.String(),
			RunID:        uuid.New(),
			CreatedAt:    time.Now().UTC(),
			CodecDigest:  codec.Digest(),
			SchemaDigest: SchemaDigest(schema),
		},
		schema: append([]string(nil), schema...),
		forest: model,
		codec:  codec,
	}, nil
}

// Header returns the run metadata
func (a *Artifacts) Header() Header { return a.header }

// Schema returns a copy of the ordered feature names
func (a *Artifacts) Schema() []string { return append([]string(nil), a.schema...) }

// Forest returns the classifier
func (a *Artifacts) Forest() *forest.Forest { return a.forest }

// Codec returns the label codec
func (a *Artifacts) Codec() *labels.Codec { return a.codec }

// SchemaDigest hashes an ordered list of feature names
func SchemaDigest(schema []string) string {
	sum := blake3.Sum256([]byte(strings.Join(schema, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Save writes all artifacts of a run. Every file is written to a temporary
// name first and renamed over the target once all of them were written.
func (s *Store) Save(a *Artifacts, report *evaluate.Report) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("could not create model directory %s: %w", s.dir, err)
	}

	type pending struct{ temp, target string }
	var written []pending
	cleanup := func() {
		for _, p := range written {
			os.Remove(p.temp)
		}
	}

	stage := func(name string, write func(io.Writer) error) error {
		temp, err := writeTemp(s.dir, name, write)
		if err != nil {
			return err
		}
		written = append(written, pending{temp: temp, target: s.Path(name)})
		return nil
	}

	err := stage(CodecFile, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(codecFile{Header: a.header, Classes: a.codec.Classes()})
	})
	if err == nil {
		err = stage(ClassifierFile, func(w io.Writer) error {
			enc, err := zstd.NewWriter(w)
			if err != nil {
				return err
			}
			if err := json.NewEncoder(enc).Encode(classifierFile{Header: a.header, Schema: a.schema, Forest: a.forest}); err != nil {
				enc.Close()
				return err
			}
			return enc.Close()
		})
	}
	if err == nil && report != nil {
		err = stage(EvaluationFile, func(w io.Writer) error {
			encoder := json.NewEncoder(w)
			encoder.SetIndent("", "  ")
			return encoder.Encode(Evaluation{Header: a.header, Report: report})
		})
	}
	if err != nil {
		cleanup()
		return err
	}

	for i, p := range written {
		if err := os.Rename(p.temp, p.target); err != nil {
			cleanup()
			return fmt.Errorf("could not move %s into place: %w", p.target, err)
		}
		written[i].temp = ""
	}

	s.log.WithFields(log.Fields{
		"directory": s.dir,
		"run_id":    a.header.RunID,
		"features":  len(a.schema),
		"classes":   a.codec.Len(),
	}).Info("Saved model artifacts")
	return nil
}

func writeTemp(dir, name string, write func(io.Writer) error) (string, error) {
	file, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("could not create temporary file for %s: %w", name, err)
	}
	if err := write(file); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", fmt.Errorf("could not write %s: %w", name, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", fmt.Errorf("could not write %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("could not write %s: %w", name, err)
	}
	return file.Name(), nil
}

// Load reads the classifier and codec and checks that they belong together
func (s *Store) Load() (*Artifacts, error) {
	codecPath := s.Path(CodecFile)
	var storedCodec codecFile
	if err := readJSON(codecPath, &storedCodec); err != nil {
		return nil, err
	}
	if err := checkFormat(codecPath, storedCodec.Header); err != nil {
		return nil, err
	}
	codec, err := labels.NewCodec(storedCodec.Classes)
	if err != nil {
		return nil, &ArtifactError{Path: codecPath, Reason: "invalid label codec", Err: err}
	}

	classifierPath := s.Path(ClassifierFile)
	stored, err := readClassifier(classifierPath)
	if err != nil {
		return nil, err
	}
	if err := checkFormat(classifierPath, stored.Header); err != nil {
		return nil, err
	}

	switch {
	case stored.Forest == nil || len(stored.Forest.Trees) == 0:
		return nil, &ArtifactError{Path: classifierPath, Reason: "classifier has no trees"}
	case stored.Header.RunID != storedCodec.Header.RunID:
		return nil, &ArtifactError{Path: classifierPath, Reason: fmt.Sprintf(
			"classifier run %s does not match codec run %s", stored.Header.RunID, storedCodec.Header.RunID)}
	case stored.Header.CodecDigest != codec.Digest():
		return nil, &ArtifactError{Path: classifierPath, Reason: "label codec digest does not match the classifier"}
	case stored.Header.SchemaDigest != SchemaDigest(stored.Schema):
		return nil, &ArtifactError{Path: classifierPath, Reason: "feature schema digest does not match"}
	case stored.Forest.NumClasses() != codec.Len():
		return nil, &ArtifactError{Path: classifierPath, Reason: fmt.Sprintf(
			"classifier predicts %d classes but the codec has %d", stored.Forest.NumClasses(), codec.Len())}
	case stored.Forest.NumFeatures() != len(stored.Schema):
		return nil, &ArtifactError{Path: classifierPath, Reason: fmt.Sprintf(
			"classifier expects %d features but the schema has %d", stored.Forest.NumFeatures(), len(stored.Schema))}
	}

	s.log.WithFields(log.Fields{
		"directory": s.dir,
		"run_id":    stored.Header.RunID,
		"created":   stored.Header.CreatedAt,
	}).Debug("Loaded model artifacts")

	return &Artifacts{
		header: stored.Header,
		schema: stored.Schema,
		forest: stored.Forest,
		codec:  codec,
	}, nil
}

// LoadEvaluation reads the evaluation report of the stored run
func (s *Store) LoadEvaluation() (*Evaluation, error) {
	path := s.Path(EvaluationFile)
	var evaluation Evaluation
	if err := readJSON(path, &evaluation); err != nil {
		return nil, err
	}
	if err := checkFormat(path, evaluation.Header); err != nil {
		return nil, err
	}
	if evaluation.Report == nil {
		return nil, &ArtifactError{Path: path, Reason: "evaluation report is empty"}
	}
	return &evaluation, nil
}

func readJSON(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return &ArtifactError{Path: path, Reason: "could not open", Err: err}
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(out); err != nil {
		return &ArtifactError{Path: path, Reason: "corrupt", Err: err}
	}
	return nil
}

func readClassifier(path string) (*classifierFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ArtifactError{Path: path, Reason: "could not open", Err: err}
	}
	defer file.Close()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return nil, &ArtifactError{Path: path, Reason: "corrupt", Err: err}
	}
	defer dec.Close()

	var stored classifierFile
	if err := json.NewDecoder(dec).Decode(&stored); err != nil {
		return nil, &ArtifactError{Path: path, Reason: "corrupt", Err: err}
	}
	return &stored, nil
}

func checkFormat(path string, header Header) error {
	version, err := semver.ParseTolerant(header.Format)
	if err != nil {
		return &ArtifactError{Path: path, Reason: "unreadable format version", Err: err}
	}
	if version.Major != FormatVersion.Major {
		return &ArtifactError{Path: path, Reason: fmt.Sprintf(
			"format %s is not compatible with %s", version, FormatVersion)}
	}
	return nil
}
