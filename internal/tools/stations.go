package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "travel-orchestrator/internal/common/errors"
	"travel-orchestrator/internal/common/logger"
	"travel-orchestrator/internal/models"
)

const defaultStationLimit = 5

// StationIndex serves find_stations from an Elasticsearch index whose
// documents carry id, name, aliases and a geo_point location.
type StationIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewStationIndex(client *elasticsearch.Client, index string, log logger.Logger) *StationIndex {
	return &StationIndex{
		client: client,
		index:  index,
		logger: log.With(map[string]interface{}{"component": "station-index", "index": index}),
	}
}

func (s *StationIndex) Invoke(ctx context.Context, toolName string, params models.ToolParams) models.ToolResult {
	p, ok := params.(models.FindStationsParams)
	if !ok {
		return Failure(apperrors.NewToolParamsInvalidError(toolName, fmt.Sprintf("unexpected params %T", params)))
	}
	if p.Query == "" && !p.ByCoordinates() {
		return Failure(apperrors.NewToolParamsInvalidError(toolName, "query or coordinates required"))
	}
	stations, err := s.Search(ctx, p)
	if err != nil {
		s.logger.Warn("Station search failed", map[string]interface{}{"error": err})
		return Failure(apperrors.NewToolInvocationFailedError(toolName, err))
	}
	return Success(models.StationsOutput{Stations: stations})
}

type stationDoc struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"location"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source stationDoc    `json:"_source"`
			Sort   []interface{} `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a fuzzy name search, or a distance-sorted search when
// coordinates are given.
func (s *StationIndex) Search(ctx context.Context, p models.FindStationsParams) ([]models.Station, error) {
	body, err := json.Marshal(buildStationQuery(p))
	if err != nil {
		return nil, err
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", s.index, res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	stations := make([]models.Station, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		st := models.Station{
			ID:        hit.Source.ID,
			Name:      hit.Source.Name,
			Latitude:  hit.Source.Location.Lat,
			Longitude: hit.Source.Location.Lon,
		}
		if p.ByCoordinates() && len(hit.Sort) > 0 {
			if d, ok := hit.Sort[0].(float64); ok {
				st.Distance = d
			}
		}
		stations = append(stations, st)
	}
	return stations, nil
}

func buildStationQuery(p models.FindStationsParams) map[string]interface{} {
	size := p.Limit
	if size <= 0 {
		size = defaultStationLimit
	}
	if p.ByCoordinates() {
		return map[string]interface{}{
			"size":  size,
			"query": map[string]interface{}{"match_all": map[string]interface{}{}},
			"sort": []interface{}{
				map[string]interface{}{
					"_geo_distance": map[string]interface{}{
						"location": map[string]interface{}{"lat": *p.Latitude, "lon": *p.Longitude},
						"order":    "asc",
						"unit":     "km",
					},
				},
			},
		}
	}
	return map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     p.Query,
				"fields":    []string{"name^3", "aliases"},
				"type":      "best_fields",
				"fuzziness": "AUTO",
			},
		},
	}
}
