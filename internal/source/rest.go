package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/supabase-community/postgrest-go"
)

// PostgREST error codes meaning the relation does not exist. The client
// reports failures as "(code) message".
var absentCodes = []string{"PGRST205", "42P01"}

// RESTQuerier reads resources through the hosted backend's PostgREST API.
type RESTQuerier struct {
	client *postgrest.Client
}

// NewRESTQuerier targets the PostgREST endpoint under baseURL/rest/v1. An
// invalid base URL surfaces as an error from every Query.
func NewRESTQuerier(baseURL, apiKey string) *RESTQuerier {
	endpoint, err := url.JoinPath(baseURL, "rest", "v1")
	if err != nil {
		return &RESTQuerier{client: &postgrest.Client{ClientError: err}}
	}

	headers := map[string]string{}
	if apiKey != "" {
		headers["apikey"] = apiKey
		headers["Authorization"] = "Bearer " + apiKey
	}
	return &RESTQuerier{client: postgrest.NewClient(endpoint, "", headers)}
}

func (q *RESTQuerier) Query(ctx context.Context, res Resource) ([]Row, error) {
	if q.client.ClientError != nil {
		return nil, fmt.Errorf("query %s: %w", res.Name, q.client.ClientError)
	}

	req := q.client.From(res.Name).Select("*", "", false)
	if res.Limit > 0 {
		req = req.Limit(res.Limit, "")
	}

	body, _, err := req.ExecuteWithContext(ctx)
	if err != nil {
		if isAbsent(err) {
			return nil, fmt.Errorf("%s: %w", res.Name, ErrAbsent)
		}
		return nil, fmt.Errorf("query %s: %w", res.Name, err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var rows []Row
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", res.Name, err)
	}
	return rows, nil
}

func isAbsent(err error) bool {
	msg := err.Error()
	for _, code := range absentCodes {
		if strings.Contains(msg, "("+code+")") {
			return true
		}
	}
	return false
}
