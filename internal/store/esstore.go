package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"ecss/internal/jobs"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// esStore stores one document per job, document id == job id, in a
// single Elasticsearch index.
type esStore struct {
	client *elasticsearch.Client
	index  string
}

// NewESStore creates a job store backed by an Elasticsearch index.
func NewESStore(client *elasticsearch.Client, index string) Store {
	return &esStore{client: client, index: index}
}

func (s *esStore) Bootstrap(ctx context.Context) error {
	exists, err := esapi.IndicesExistsRequest{Index: []string{s.index}}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("store: check index %q: %w", s.index, err)
	}
	defer exists.Body.Close()
	if exists.StatusCode == 200 {
		return nil
	}
	create, err := esapi.IndicesCreateRequest{Index: s.index}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("store: create index %q: %w", s.index, err)
	}
	defer create.Body.Close()
	if create.IsError() {
		return fmt.Errorf("store: create index %q: %s", s.index, create.Status())
	}
	return nil
}

func (s *esStore) LoadAll(ctx context.Context) ([]*jobs.Job, error) {
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader([]byte(`{"query":{"match_all":{}},"size":10000}`)),
	}
	resp, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("store: search %q: %w", s.index, err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, fmt.Errorf("store: search %q: %s", s.index, resp.Status())
	}

	var hits esSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, fmt.Errorf("store: decode search response: %w", err)
	}
	out := make([]*jobs.Job, 0, len(hits.Hits.Hits))
	for _, h := range hits.Hits.Hits {
		out = append(out, &h.Source)
	}
	return out, nil
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			Source jobs.Job `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *esStore) Get(ctx context.Context, id string) (*jobs.Job, error) {
	req := esapi.GetRequest{Index: s.index, DocumentID: id}
	resp, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("store: get %q: %w", id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == 404 {
		return nil, ErrNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("store: get %q: %s", id, resp.Status())
	}

	var doc struct {
		Source jobs.Job `json:"_source"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("store: decode %q: %w", id, err)
	}
	return &doc.Source, nil
}

func (s *esStore) Create(ctx context.Context, job *jobs.Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	req := esapi.CreateRequest{Index: s.index, DocumentID: job.ID, Body: bytes.NewReader(body)}
	resp, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("store: create %q: %w", job.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == 409 {
		return ErrAlreadyExists
	}
	if resp.IsError() {
		return fmt.Errorf("store: create %q: %s", job.ID, resp.Status())
	}
	return nil
}

func (s *esStore) Update(ctx context.Context, job *jobs.Job) error {
	if _, err := s.Get(ctx, job.ID); err != nil {
		return err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: s.index, DocumentID: job.ID, Body: bytes.NewReader(body)}
	resp, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("store: update %q: %w", job.ID, err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("store: update %q: %s", job.ID, resp.Status())
	}
	return nil
}

func (s *esStore) Delete(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: s.index, DocumentID: id}
	resp, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("store: delete %q: %w", id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == 404 {
		return ErrNotFound
	}
	if resp.IsError() {
		return fmt.Errorf("store: delete %q: %s", id, resp.Status())
	}
	return nil
}

func (s *esStore) Capabilities() []Capability { return FullCapabilitySet }

func (s *esStore) Close() error { return nil }
