// Package s3 holds the recap store: meeting summaries land in a bucket
// under Summarize/<room>_<suffix> and this adapter finds the newest one.
package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"

	"github.com/recapcall/signal-server/internal/domain"
)

const recapPrefix = "Summarize/"

type RecapStore struct {
	client *awss3.Client
	bucket string
}

func NewRecapStore(ctx context.Context, region, bucket string) (*RecapStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &RecapStore{client: awss3.NewFromConfig(cfg), bucket: bucket}, nil
}

// LatestRecapKey finds the newest recap object for the room. Uploaders on
// macOS write NFD-composed room names, so a miss on the literal name is
// retried with the NFD form before giving up.
func (s *RecapStore) LatestRecapKey(ctx context.Context, room domain.RoomName) (string, error) {
	keys, err := s.list(ctx, recapPrefix+string(room)+"_")
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		nfd := norm.NFD.String(string(room))
		log.Info().Str("module", "adapters.s3").Str("room", string(room)).Str("nfd", nfd).Msg("no recap under literal name, retrying NFD form")
		keys, err = s.list(ctx, recapPrefix+nfd+"_")
		if err != nil {
			return "", err
		}
	}
	if len(keys) == 0 {
		return "", fmt.Errorf("no recap file found for room %q", room)
	}

	latest := keys[0]
	for _, k := range keys[1:] {
		if k.modified.After(latest.modified) {
			latest = k
		}
	}
	return latest.key, nil
}

// Content fetches an object body as text.
func (s *RecapStore) Content(ctx context.Context, key string) (string, error) {
	obj, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	defer obj.Body.Close()
	b, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", key, err)
	}
	return string(b), nil
}

type objectRef struct {
	key      string
	modified time.Time
}

func (s *RecapStore) list(ctx context.Context, prefix string) ([]objectRef, error) {
	var out []objectRef
	p := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			ref := objectRef{key: aws.ToString(obj.Key)}
			if obj.LastModified != nil {
				ref.modified = *obj.LastModified
			}
			out = append(out, ref)
		}
	}
	return out, nil
}
