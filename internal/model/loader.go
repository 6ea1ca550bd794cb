package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/readmission-risk-server/internal/domain"
)

// bundleFile is the on-disk bundle document.
type bundleFile struct {
	FormatVersion int      `json:"format_version"`
	Metadata      Metadata `json:"metadata"`
	Columns       []string `json:"columns"`
	LabelEncoder  struct {
		Field   string   `json:"field"`
		Classes []string `json:"classes"`
	} `json:"label_encoder"`
	OneHot []struct {
		Field      string   `json:"field"`
		Categories []string `json:"categories"`
		Baseline   string   `json:"baseline"`
	} `json:"one_hot"`
	Scaler struct {
		Mean  []float64 `json:"mean"`
		Scale []float64 `json:"scale"`
	} `json:"scaler"`
	Classifier classifierFile `json:"classifier"`
}

type classifierFile struct {
	Kind         string    `json:"kind"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	NFeatures    int       `json:"n_features"`
	LearningRate float64   `json:"learning_rate"`
	InitScore    float64   `json:"init_score"`
	Trees        []struct {
		Nodes []TreeNode `json:"nodes"`
	} `json:"trees"`
}

// Load reads a bundle from path. The format follows the extension: .json, .yaml or
// .yml, and .json.gz or .json.zst for compressed JSON. Every failure is returned as a
// *domain.BundleError; a missing file wraps domain.ErrBundleNotFound.
func Load(path string) (*Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewBundleError(path, domain.ErrBundleNotFound)
		}
		return nil, domain.NewBundleError(path, err)
	}

	data, err := decodeDocument(path, raw)
	if err != nil {
		return nil, domain.NewBundleError(path, err)
	}

	b, err := Parse(data)
	if err != nil {
		return nil, domain.NewBundleError(path, err)
	}
	return b, nil
}

// decodeDocument turns the raw file into a JSON document.
func decodeDocument(path string, raw []byte) ([]byte, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json.gz"):
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer zr.Close()
		return readAll(zr)
	case strings.HasSuffix(lower, ".json.zst"):
		zr, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		defer zr.Close()
		return readAll(zr)
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		out, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("convert yaml to json: %w", err)
		}
		return out, nil
	case strings.HasSuffix(lower, ".json"):
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported bundle format %q", path)
	}
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress bundle: %w", err)
	}
	return data, nil
}

// Parse builds a Bundle from a JSON bundle document. The document is checked against
// the bundle schema before any artifact is constructed.
func Parse(data []byte) (*Bundle, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}

	var f bundleFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}

	labelEncoder, err := NewLabelEncoder(f.LabelEncoder.Field, f.LabelEncoder.Classes)
	if err != nil {
		return nil, err
	}

	oneHot := make([]*OneHotEncoder, 0, len(f.OneHot))
	for _, oh := range f.OneHot {
		enc, err := NewOneHotEncoder(oh.Field, oh.Categories, oh.Baseline)
		if err != nil {
			return nil, err
		}
		oneHot = append(oneHot, enc)
	}

	scaler, err := NewStandardScaler(f.Scaler.Mean, f.Scaler.Scale)
	if err != nil {
		return nil, err
	}

	classifier, err := buildClassifier(f.Classifier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Classifier.Kind, err)
	}

	return NewBundle(Components{
		Metadata:     f.Metadata,
		Columns:      f.Columns,
		LabelEncoder: labelEncoder,
		OneHot:       oneHot,
		Scaler:       scaler,
		Classifier:   classifier,
	})
}

func buildClassifier(c classifierFile) (Classifier, error) {
	switch c.Kind {
	case KindLogisticRegression:
		return NewLogisticRegression(c.Coefficients, c.Intercept)
	case KindRandomForest, KindGradientBoosting:
		trees := make([]*DecisionTree, 0, len(c.Trees))
		for i, t := range c.Trees {
			tree, err := NewDecisionTree(t.Nodes, c.NFeatures)
			if err != nil {
				return nil, fmt.Errorf("tree %d: %w", i, err)
			}
			trees = append(trees, tree)
		}
		if c.Kind == KindRandomForest {
			return NewRandomForest(trees, c.NFeatures)
		}
		return NewGradientBoosting(trees, c.NFeatures, c.LearningRate, c.InitScore)
	default:
		return nil, fmt.Errorf("unsupported classifier kind %q", c.Kind)
	}
}
