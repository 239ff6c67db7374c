// Package convert re-encodes staged JSON sales pages as Avro Object Container
// Files bound to a single record schema.
package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atroinina/sales-pipeline/pkg/logging"
	"github.com/atroinina/sales-pipeline/pkg/metrics"
	"github.com/atroinina/sales-pipeline/pkg/staging"
	"github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

const (
	// JSONExt is the extension of raw files picked up for conversion.
	JSONExt = ".json"

	// AvroExt is the extension of converted files.
	AvroExt = ".avro"
)

// Prometheus metrics for conversion runs.
var (
	convertRunsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "sales_convert_runs_total",
		Help: "Total conversion runs by outcome",
	}, []string{"outcome"}) // "success", "failed"

	filesConvertedTotal = promauto.With(metrics.Registry).NewCounter(prometheus.CounterOpts{
		Name: "sales_files_converted_total",
		Help: "Total raw files converted to Avro",
	})

	recordsConvertedTotal = promauto.With(metrics.Registry).NewCounter(prometheus.CounterOpts{
		Name: "sales_records_converted_total",
		Help: "Total sales records written to Avro files",
	})
)

// Config holds converter configuration.
type Config struct {
	// SchemaPath is the .avsc file describing one sales record (REQUIRED).
	SchemaPath string

	// Codec compresses the container blocks: null, deflate or snappy.
	Codec ocf.CodecName
}

// DefaultConfig returns the configuration used by the pipeline.
func DefaultConfig(schemaPath string) Config {
	return Config{
		SchemaPath: schemaPath,
		Codec:      ocf.Deflate,
	}
}

// Summary describes a completed conversion run.
type Summary struct {
	Files    []string
	Records  int
	Duration time.Duration
}

// Converter turns a directory of raw JSON files into Avro files.
type Converter struct {
	config Config
	logger zerolog.Logger
}

// New creates a new converter.
func New(cfg Config) (*Converter, error) {
	if cfg.SchemaPath == "" {
		return nil, fmt.Errorf("schema path is required")
	}

	switch cfg.Codec {
	case "":
		cfg.Codec = ocf.Deflate
	case ocf.Null, ocf.Deflate, ocf.Snappy:
	default:
		return nil, fmt.Errorf("unsupported codec %q (want null, deflate or snappy)", cfg.Codec)
	}

	return &Converter{
		config: cfg,
		logger: logging.NewLogger("convert"),
	}, nil
}

// LoadSchema reads and parses the record schema file.
//
// The schema is parsed fresh on every call so a run always sees the file as
// it is now.
func (c *Converter) LoadSchema() (avro.Schema, error) {
	schema, err := avro.ParseFiles(c.config.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchema, c.config.SchemaPath, err)
	}
	return schema, nil
}

// ConvertAll clears outDir, then writes one Avro file to outDir for every
// *.json file directly inside rawDir, in directory order.
//
// The first file that fails to parse or to match the schema stops the run;
// files converted before it stay in outDir. An empty rawDir is not an error.
func (c *Converter) ConvertAll(rawDir, outDir string) (Summary, error) {
	start := time.Now()
	summary := Summary{}

	if same, err := samePath(rawDir, outDir); err != nil {
		return summary, err
	} else if same {
		return summary, fmt.Errorf("%w: %s", ErrSameDirectory, outDir)
	}

	if err := staging.EnsureEmpty(outDir); err != nil {
		return c.fail(summary, start, fmt.Errorf("prepare output directory: %w", err))
	}

	schema, err := c.LoadSchema()
	if err != nil {
		return c.fail(summary, start, err)
	}

	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return c.fail(summary, start, fmt.Errorf("read raw directory: %w", err))
	}

	c.logger.Info().
		Str("raw_dir", rawDir).
		Str("out_dir", outDir).
		Str("schema", c.config.SchemaPath).
		Msg("Starting conversion")

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, JSONExt) {
			continue
		}

		inPath := filepath.Join(rawDir, name)
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, JSONExt)+AvroExt)

		records, err := c.convertFile(schema, inPath, outPath)
		if err != nil {
			return c.fail(summary, start, err)
		}

		summary.Files = append(summary.Files, outPath)
		summary.Records += records
		filesConvertedTotal.Inc()
		recordsConvertedTotal.Add(float64(records))

		c.logger.Debug().
			Str("file", inPath).
			Str("output", outPath).
			Int("records", records).
			Msg("Converted raw file to Avro")
	}

	summary.Duration = time.Since(start)
	convertRunsTotal.WithLabelValues("success").Inc()

	c.logger.Info().
		Int("files", len(summary.Files)).
		Int("records", summary.Records).
		Dur("duration", summary.Duration).
		Msg("Conversion complete")

	return summary, nil
}

// convertFile parses one raw file, conforms every record to schema and
// writes them as an Avro container. Returns the record count.
func (c *Converter) convertFile(schema avro.Schema, inPath, outPath string) (int, error) {
	records, err := readRecords(inPath)
	if err != nil {
		return 0, &ConvertError{File: inPath, Record: -1, Err: err}
	}

	conformed := make([]any, len(records))
	for i, record := range records {
		cv, err := conform(schema, record, "")
		if err != nil {
			return 0, &ConvertError{File: inPath, Record: i, Err: err}
		}
		conformed[i] = cv
	}

	if err := c.writeContainer(schema, outPath, conformed); err != nil {
		// Only the half-written file goes; earlier outputs stay.
		_ = os.Remove(outPath)
		return 0, &ConvertError{File: inPath, Record: -1, Err: err}
	}

	return len(conformed), nil
}

func (c *Converter) writeContainer(schema avro.Schema, outPath string, records []any) error {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	enc, err := ocf.NewEncoder(schema.String(), f, ocf.WithCodec(c.config.Codec))
	if err != nil {
		return fmt.Errorf("create avro encoder: %w", err)
	}

	for i, record := range records {
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrSchemaValidation, i, err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush avro container: %w", err)
	}

	return f.Close()
}

// readRecords decodes a raw file into its record set. A top-level array is
// the set; a top-level object is a set of one.
func readRecords(path string) ([]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raw file: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after top-level value", ErrParse)
	}

	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		return []any{v}, nil
	}

	return nil, fmt.Errorf("%w: top-level value must be an array or object, got %s",
		ErrSchemaValidation, describe(doc))
}

func (c *Converter) fail(summary Summary, start time.Time, err error) (Summary, error) {
	summary.Duration = time.Since(start)
	convertRunsTotal.WithLabelValues("failed").Inc()

	c.logger.Error().
		Err(err).
		Int("files_written", len(summary.Files)).
		Msg("Conversion failed")

	return summary, err
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}
