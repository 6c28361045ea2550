package s3archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-resilience/pkg/resilience"
	"github.com/dd0wney/cluso-resilience/pkg/simerr"
	"github.com/dd0wney/cluso-resilience/pkg/store/storetest"
)

type stored struct {
	body        []byte
	contentType string
	metadata    map[string]string
}

// fakeS3 serves the subset of the S3 REST API the archive uses.
type fakeS3 struct {
	mu      sync.Mutex
	objects  map[string]stored
	failPut  bool
	noBucket bool
}

func respond(status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body)), Header: header}
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		prefix := req.URL.Query().Get("prefix")
		var keys []string
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>",
				k, len(f.objects[k].body))
		}
		b.WriteString("</ListBucketResult>")
		return respond(http.StatusOK, b.String(), http.Header{"Content-Type": {"application/xml"}}), nil
	}

	switch req.Method {
	case http.MethodPut:
		if f.failPut {
			return respond(http.StatusInternalServerError,
				`<Error><Code>InternalError</Code><Message>boom</Message></Error>`,
				http.Header{"Content-Type": {"application/xml"}}), nil
		}
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		md := map[string]string{}
		for h, v := range req.Header {
			if name, ok := strings.CutPrefix(strings.ToLower(h), "x-amz-meta-"); ok {
				md[name] = v[0]
			}
		}
		f.objects[key] = stored{body: body, contentType: req.Header.Get("Content-Type"), metadata: md}
		return respond(http.StatusOK, "", http.Header{"ETag": {`"etag"`}}), nil
	case http.MethodGet:
		obj, ok := f.objects[key]
		if !ok {
			return respond(http.StatusNotFound,
				`<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`,
				http.Header{"Content-Type": {"application/xml"}}), nil
		}
		return respond(http.StatusOK, string(obj.body), http.Header{
			"Content-Length": {strconv.Itoa(len(obj.body))},
			"Content-Type":   {obj.contentType},
			"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
			"ETag":           {`"etag"`},
		}), nil
	case http.MethodHead:
		if key == "" && f.noBucket {
			return respond(http.StatusNotFound, "", nil), nil
		}
		return respond(http.StatusOK, "", nil), nil
	case http.MethodDelete:
		delete(f.objects, key)
		return respond(http.StatusNoContent, "", nil), nil
	}
	return respond(http.StatusNotImplemented, "", nil), nil
}

// decodeChunked unwraps a single-chunk aws-chunked body.
func decodeChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	n, err := strconv.ParseInt(parts[0], 16, 64)
	if err != nil || n <= 0 || int64(len(parts[1])) != n || parts[2] != "0" {
		return nil, false
	}
	return []byte(parts[1]), true
}

func newFakeArchive(t *testing.T, prefix string) (*Archive, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: make(map[string]stored)}
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	require.NoError(t, err)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String("https://mock.s3.local")
		o.HTTPClient = &http.Client{Transport: fake}
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.RetryMaxAttempts = 1
	})
	return NewWithClient(client, "reports-bucket", prefix, WithConcurrency(3)), fake
}

func TestPutAndGet(t *testing.T) {
	a, fake := newFakeArchive(t, "/resilience/")
	ctx := context.Background()
	want := storetest.Report("abc123", 0.75)

	require.NoError(t, a.Put(ctx, want))

	obj, ok := fake.objects["resilience/abc123.json"]
	require.True(t, ok, "object key")
	assert.Equal(t, "application/json", obj.contentType)
	assert.Equal(t, "natural_disaster", obj.metadata["scenario-type"])
	assert.Equal(t, "0.750000", obj.metadata["resilience-score"])

	got, err := a.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetMissing(t *testing.T) {
	a, _ := newFakeArchive(t, "reports")

	_, err := a.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, simerr.IsNotFound(err))
}

func TestPutRejectsEmptyFingerprint(t *testing.T) {
	a, _ := newFakeArchive(t, "reports")
	err := a.Put(context.Background(), resilience.Report{})
	assert.True(t, simerr.IsValidation(err))
}

func TestArchiveAllAndList(t *testing.T) {
	a, fake := newFakeArchive(t, "reports")
	ctx := context.Background()

	var reports []resilience.Report
	for i := 9; i >= 0; i-- {
		reports = append(reports, storetest.Report(fmt.Sprintf("fp%02d", i), float64(i)/10))
	}
	require.NoError(t, a.ArchiveAll(ctx, reports))
	assert.Len(t, fake.objects, 10)

	// Objects outside the prefix are ignored.
	fake.objects["other/fp99.json"] = stored{body: []byte("{}")}

	fps, err := a.List(ctx)
	require.NoError(t, err)
	require.Len(t, fps, 10)
	assert.Equal(t, "fp00", fps[0])
	assert.Equal(t, "fp09", fps[9])
}

func TestArchiveAllFailure(t *testing.T) {
	a, fake := newFakeArchive(t, "reports")
	fake.failPut = true

	err := a.ArchiveAll(context.Background(), []resilience.Report{
		storetest.Report("a", 0.1),
		storetest.Report("b", 0.2),
	})
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	a, fake := newFakeArchive(t, "reports")
	ctx := context.Background()
	require.NoError(t, a.Put(ctx, storetest.Report("gone", 0.5)))

	require.NoError(t, a.Delete(ctx, "gone"))
	assert.Empty(t, fake.objects)
}

func TestPing(t *testing.T) {
	a, fake := newFakeArchive(t, "reports")
	require.NoError(t, a.Ping(context.Background()))

	fake.noBucket = true
	assert.Error(t, a.Ping(context.Background()))
}

func TestKey(t *testing.T) {
	a, _ := newFakeArchive(t, "")
	assert.Equal(t, "fp.json", a.Key("fp"))

	b, _ := newFakeArchive(t, "a/b/")
	assert.Equal(t, "a/b/fp.json", b.Key("fp"))
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}

func TestNewWithStaticCredentials(t *testing.T) {
	a, err := New(context.Background(), Config{
		Bucket:          "bkt",
		Prefix:          "reports",
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		UsePathStyle:    true,
		Concurrency:     8,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, a.concurrency)
	assert.Equal(t, "reports/x.json", a.Key("x"))
}
