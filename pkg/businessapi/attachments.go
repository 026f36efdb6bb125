package businessapi

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// resolveAttachments uploads the pending file parts and overwrites the
// textual imageUrl/productImages values with the resolved URLs. Gallery
// uploads fan out with bounded concurrency; results are reassembled by
// original index so the final order always matches submission order. Any
// single failed upload fails the whole operation and nothing is written to
// the fields map.
func (s *service) resolveAttachments(ctx context.Context, fields Fields, image *Attachment, gallery []Attachment) error {
	if image == nil && len(gallery) == 0 {
		return nil
	}
	if s.blobStore == nil {
		return &UploadError{Field: "image", Err: errors.New("no blob store configured")}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.uploadLimit)

	var imageURL string
	if image != nil {
		att := *image
		g.Go(func() error {
			url, err := s.blobStore.Upload(ctx, att)
			if err != nil {
				return &UploadError{Field: "image", Filename: att.Filename, Err: err}
			}
			imageURL = url
			return nil
		})
	}

	galleryURLs := make([]string, len(gallery))
	for i, att := range gallery {
		g.Go(func() error {
			url, err := s.blobStore.Upload(ctx, att)
			if err != nil {
				return &UploadError{Field: FieldProductImages, Index: i, Filename: att.Filename, Err: err}
			}
			galleryURLs[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	// Resolved uploads take precedence over textual values.
	if image != nil {
		fields[FieldImageURL] = imageURL
	}
	if len(gallery) > 0 {
		fields[FieldProductImages] = galleryURLs
	}
	return nil
}
