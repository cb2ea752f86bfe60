package providers

import (
	"fmt"
	"net/url"

	"freeflicks/models"
)

// BuildURL turns a playback request into the provider's embed address.
// Series requests without a season/episode selection are rejected before
// any address is produced.
func BuildURL(desc Descriptor, req models.PlaybackRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	spec := desc.embed

	var path string
	switch req.MediaType {
	case models.MediaTypeMovie:
		path = fmt.Sprintf("%s/movie/%s", spec.Base, url.PathEscape(req.MediaID))
	case models.MediaTypeSeries:
		if req.Season == 0 || req.Episode == 0 {
			return "", fmt.Errorf("%w: series request requires season and episode", models.ErrInvalidRequest)
		}
		if spec.SeriesDashed {
			path = fmt.Sprintf("%s/tv/%s-%d-%d", spec.Base, url.PathEscape(req.MediaID), req.Season, req.Episode)
		} else {
			path = fmt.Sprintf("%s/tv/%s/%d/%d", spec.Base, url.PathEscape(req.MediaID), req.Season, req.Episode)
		}
	}

	query := mergeQuery(spec.Query, nil)
	if req.MediaType == models.MediaTypeSeries {
		query = mergeQuery(spec.Query, spec.SeriesQuery)
	}
	if len(query) == 0 {
		return path, nil
	}
	return path + "?" + query.Encode(), nil
}

func mergeQuery(base, extra url.Values) url.Values {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make(url.Values, len(base)+len(extra))
	for key, values := range base {
		merged[key] = values
	}
	for key, values := range extra {
		merged[key] = values
	}
	return merged
}
