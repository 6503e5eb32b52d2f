// Package quizdoc decodes and validates authored quiz documents.
package quizdoc

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"outcome-quiz-service/internal/domain"
)

const schemaURL = "schema://quiz.json"

// quizSchema is the structural contract for a quiz document. Cross-field rules live in Validate.
const quizSchema = `{
  "type": "object",
  "required": ["id", "mode", "questions", "results"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "title": {"type": "string"},
    "mode": {"enum": ["NUMERIC", "DIMENSIONAL"]},
    "axisCount": {"type": "integer", "minimum": 0},
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "options"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "order": {"type": "integer"},
          "prompt": {"type": "string"},
          "options": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["id"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "text": {"type": "string"},
                "score": {"type": "integer"},
                "typeCode": {"type": "string"},
                "weight": {"type": "number"}
              }
            }
          }
        }
      }
    },
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string"},
          "description": {"type": "string"},
          "minScore": {"type": "integer"},
          "maxScore": {"type": "integer"},
          "typeCode": {"type": "string"}
        }
      }
    }
  }
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(quizSchema), &def); err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Decode checks raw against the quiz schema, unmarshals it and runs Validate.
func Decode(raw []byte) (domain.Quiz, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return domain.Quiz{}, fmt.Errorf("invalid JSON: %w", err)
	}
	sch, err := schema()
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("compile quiz schema: %w", err)
	}
	if err := sch.Validate(parsed); err != nil {
		return domain.Quiz{}, fmt.Errorf("schema validation failed: %w", err)
	}

	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	if err := Validate(quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// ReadFile decodes the quiz document stored at path.
func ReadFile(path string) (domain.Quiz, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Quiz{}, err
	}
	return Decode(raw)
}

// Validate enforces the authoring invariants a quiz must hold before it can be played.
// All violations are reported together.
func Validate(quiz domain.Quiz) error {
	var errs []error
	if len(quiz.Questions) == 0 {
		errs = append(errs, domain.ErrNoQuestions)
	}
	if len(quiz.Results) == 0 {
		errs = append(errs, domain.ErrNoResults)
	}

	orders := make(map[int]string, len(quiz.Questions))
	for _, q := range quiz.Questions {
		if prev, dup := orders[q.Order]; dup {
			errs = append(errs, fmt.Errorf("questions %q and %q share order %d", prev, q.ID, q.Order))
		}
		orders[q.Order] = q.ID

		seen := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if seen[o.ID] {
				errs = append(errs, fmt.Errorf("question %q: duplicate option id %q", q.ID, o.ID))
			}
			seen[o.ID] = true
		}
	}

	switch quiz.Mode {
	case domain.ModeNumeric:
		for _, r := range quiz.Results {
			if r.MinScore < 0 || r.MaxScore < 0 {
				errs = append(errs, fmt.Errorf("result %q: negative score band", r.ID))
			}
			if r.MinScore > r.MaxScore {
				errs = append(errs, fmt.Errorf("result %q: minScore %d > maxScore %d", r.ID, r.MinScore, r.MaxScore))
			}
		}
	case domain.ModeDimensional:
		if quiz.AxisCount < 0 {
			errs = append(errs, errors.New("dimensional quiz has a negative axisCount"))
		}
		// axisCount 0 opts into free-length codes built from the strongest letters.
		for _, r := range quiz.Results {
			n := len([]rune(r.TypeCode))
			switch {
			case quiz.AxisCount > 0 && n != quiz.AxisCount:
				errs = append(errs, fmt.Errorf("result %q: type code %q has %d axes, want %d", r.ID, r.TypeCode, n, quiz.AxisCount))
			case quiz.AxisCount == 0 && n == 0:
				errs = append(errs, fmt.Errorf("result %q: missing type code", r.ID))
			}
		}
		for _, q := range quiz.Questions {
			for _, o := range q.Options {
				if n := len([]rune(o.TypeCode)); n > 1 {
					errs = append(errs, fmt.Errorf("question %q option %q: type code %q is not a single character", q.ID, o.ID, o.TypeCode))
				}
			}
		}
	default:
		errs = append(errs, fmt.Errorf("unknown resolution mode %q", quiz.Mode))
	}
	return errors.Join(errs...)
}
