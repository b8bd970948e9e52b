package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kaia-invest/kaia-core/internal/httpclient"
	"github.com/kaia-invest/kaia-core/internal/model"
)

// ListOptions narrows list requests. Zero values are not sent.
type ListOptions struct {
	Limit  int
	Offset int
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	return q
}

// messages are the error texts used when a failed response carries no
// message of its own.
type messages struct {
	list, get, create, update, delete string
}

// resource is the CRUD plumbing shared by the typed clients. T is the
// domain type; the codec functions translate it to and from the wire.
type resource[T any] struct {
	client *httpclient.Client
	name   string
	// path is the collection path exactly as the API expects it, trailing
	// slash included where the API wants one.
	path       string
	listFields []string
	fromWire   func(model.Record) T
	toWire     func(T) model.Record
	msgs       messages
}

func (r *resource[T]) item(id int64) string {
	return strings.TrimSuffix(r.path, "/") + "/" + strconv.FormatInt(id, 10)
}

func (r *resource[T]) list(ctx context.Context, path string, opts ListOptions) ([]T, error) {
	resp, err := r.client.Do(ctx, httpclient.Request{
		Method:   http.MethodGet,
		Path:     path,
		Query:    opts.query(),
		Resource: r.name,
		Fallback: r.msgs.list,
	})
	if err != nil {
		return nil, err
	}
	return r.decodeAll(resp.List(r.listFields...).Records()), nil
}

func (r *resource[T]) get(ctx context.Context, id int64) (T, error) {
	resp, err := r.client.Do(ctx, httpclient.Request{
		Method:   http.MethodGet,
		Path:     r.item(id),
		Resource: r.name,
		Fallback: r.msgs.get,
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return r.fromWire(resp.Value().Record()), nil
}

func (r *resource[T]) create(ctx context.Context, v T) (T, error) {
	resp, err := r.client.Do(ctx, httpclient.Request{
		Method:   http.MethodPost,
		Path:     r.path,
		Body:     r.toWire(v),
		Resource: r.name,
		Fallback: r.msgs.create,
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return r.decodeOr(resp, v), nil
}

func (r *resource[T]) update(ctx context.Context, id int64, v T) (T, error) {
	resp, err := r.client.Do(ctx, httpclient.Request{
		Method:   http.MethodPut,
		Path:     r.item(id),
		Body:     r.toWire(v),
		Resource: r.name,
		Fallback: r.msgs.update,
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return r.decodeOr(resp, v), nil
}

func (r *resource[T]) delete(ctx context.Context, id int64) error {
	_, err := r.client.Do(ctx, httpclient.Request{
		Method:   http.MethodDelete,
		Path:     r.item(id),
		Resource: r.name,
		Fallback: r.msgs.delete,
	})
	return err
}

// decodeOr decodes the response value, or returns sent unchanged when the
// server answered with an empty body.
func (r *resource[T]) decodeOr(resp *httpclient.Response, sent T) T {
	env := resp.Value()
	if env.Empty() {
		return sent
	}
	return r.fromWire(env.Record())
}

func (r *resource[T]) decodeAll(records []model.Record) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		out = append(out, r.fromWire(rec))
	}
	return out
}
