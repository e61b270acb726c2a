package webapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// maxBodySize bounds JSON and form request bodies.
const maxBodySize = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// errBadRequest marks request decoding and validation failures.
var errBadRequest = errors.New("bad request")

// decodeRequest fills out from a JSON, urlencoded or multipart body and
// validates it.
func decodeRequest(r *http.Request, out any) error {
	raw, err := requestValues(r)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonArrayHook,
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s fails %q", errBadRequest, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// requestValues returns the body as a generic map.
func requestValues(r *http.Request) (map[string]any, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/json":
		m := map[string]any{}
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
		if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding JSON body: %w", err)
		}
		return m, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodySize); err != nil {
			return nil, fmt.Errorf("parsing form: %w", err)
		}
		return formValues(r.MultipartForm.Value), nil
	default:
		r.Body = http.MaxBytesReader(nil, r.Body, maxBodySize)
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parsing form: %w", err)
		}
		return formValues(r.PostForm), nil
	}
}

// formValues flattens single-valued fields to strings.
func formValues(values map[string][]string) map[string]any {
	m := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			m[k] = vs[0]
			continue
		}
		m[k] = vs
	}
	return m
}

var stringSliceType = reflect.TypeOf([]string(nil))

// jsonArrayHook accepts a JSON array string for a []string field, the way
// the evaluation service receives metrics.
func jsonArrayHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != stringSliceType {
		return data, nil
	}
	s := strings.TrimSpace(reflect.ValueOf(data).String())
	if !strings.HasPrefix(s, "[") {
		return data, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("invalid list %q: %w", s, err)
	}
	return out, nil
}
