package domain

import (
	"fmt"
	"math"
)

// Recognized option keys. The alternative names are accepted for callers that
// still send the older option names.
const (
	OptionResponseType        = "responseType"
	OptionMaxPages            = "maxPages"
	OptionMaxNumDocuments     = "maxNumDocuments"
	OptionImageQuality        = "imageQuality"
	OptionCroppedImageQuality = "croppedImageQuality"
)

// ParseScanOptions builds ScanOptions from a loosely typed option map, such as
// a decoded JSON request body. Unknown keys are ignored.
func ParseScanOptions(raw map[string]any) (ScanOptions, error) {
	opts := DefaultScanOptions()

	if v, ok := raw[OptionResponseType]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return opts, fmt.Errorf("%s must be a string", OptionResponseType)
		}
		opts.ResponseType = ParseResponseType(s)
	}

	for _, key := range []string{OptionMaxNumDocuments, OptionMaxPages} {
		if v, ok := raw[key]; ok && v != nil {
			n, err := toInt(key, v)
			if err != nil {
				return opts, err
			}
			opts.MaxPages = n
		}
	}

	for _, key := range []string{OptionCroppedImageQuality, OptionImageQuality} {
		if v, ok := raw[key]; ok && v != nil {
			n, err := toInt(key, v)
			if err != nil {
				return opts, err
			}
			opts.ImageQuality = n
		}
	}

	return opts.Normalize(), nil
}

func toInt(key string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%s must be an integer", key)
		}

		return int(n), nil
	default:
		return 0, fmt.Errorf("%s must be an integer", key)
	}
}
