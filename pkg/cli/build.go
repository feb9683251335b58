package cli

import (
	"context"
	"fmt"

	"github.com/bstardust/piclabel/internal/config"
	"github.com/bstardust/piclabel/internal/geocode"
	"github.com/bstardust/piclabel/internal/imageinfo"
	"github.com/bstardust/piclabel/internal/journal"
	"github.com/bstardust/piclabel/internal/labeler"
	"github.com/bstardust/piclabel/internal/location"
	"github.com/bstardust/piclabel/internal/logger"
	"github.com/bstardust/piclabel/internal/output"
	"github.com/bstardust/piclabel/internal/render"
	"github.com/bstardust/piclabel/internal/share"
	"github.com/bstardust/piclabel/pkg/s3client"
)

// newExtractor wires the device location chain and the reverse geocoder
func newExtractor(cfg *config.Config) (*imageinfo.Extractor, error) {
	zone, err := cfg.Zone()
	if err != nil {
		return nil, err
	}

	// later providers are asked first
	var chain location.Chain
	if cfg.Location.Static != "" {
		coords, err := location.ParseCoordinates(cfg.Location.Static)
		if err != nil {
			return nil, fmt.Errorf("invalid static location: %w", err)
		}
		chain = append(chain, location.Static{Coordinates: coords})
	}
	if cfg.Location.File != "" {
		chain = append(chain, location.File{Path: cfg.Location.File, MaxAge: cfg.Location.MaxAge})
	}

	var geocoder geocode.Geocoder
	if cfg.Geocode.Enabled {
		nominatim, err := geocode.NewNominatim(cfg.Geocode)
		if err != nil {
			return nil, err
		}
		geocoder = geocode.NewBreaker(nominatim, geocode.DefaultBreakerConfig())
	} else {
		logger.Debug("Reverse geocoding disabled")
	}

	return imageinfo.NewExtractor(chain, geocoder,
		imageinfo.WithZone(zone),
		imageinfo.WithDateFormat(cfg.Label.DateFormat),
		imageinfo.WithSidecars(cfg.Label.Sidecars),
	), nil
}

func newLabeler(cfg *config.Config) (*labeler.Labeler, error) {
	font, err := render.LoadFont(cfg.Label.Font, cfg.Label.FontFile)
	if err != nil {
		return nil, err
	}
	return labeler.New(font, cfg.Label.JPEGQuality, output.New(cfg.Label.OutputDir)), nil
}

func newSharer(ctx context.Context, cfg *config.Config) (*share.Service, error) {
	client, err := s3client.New(ctx, s3client.Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		Bucket:    cfg.S3.Bucket,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
		Prefix:    cfg.S3.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	return share.New(client, cfg.Share.Expiry, share.DefaultRetryConfig()), nil
}

func loadJournal(cfg *config.Config) *journal.Journal {
	jnl := journal.New(cfg.Batch.JournalPath)
	if cfg.Batch.Resume {
		if err := jnl.Load(); err != nil {
			logger.Warn("Could not load journal: %v", err)
		}
	}
	return jnl
}
