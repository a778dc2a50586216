package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cargoflow/tracking-system/internal/core/domain"
	"github.com/cargoflow/tracking-system/internal/core/ports"
	"github.com/cargoflow/tracking-system/internal/core/service"
	"github.com/cargoflow/tracking-system/internal/infrastructure/config"
	mongodb "github.com/cargoflow/tracking-system/internal/infrastructure/db/mongo"
	"github.com/cargoflow/tracking-system/pkg/logger"
)

const (
	fleetSize  = 12
	routeSteps = 100
	// curveAmplitude bows each route (in degrees of longitude) so seeded
	// vessels do not sail in perfectly straight lines.
	curveAmplitude = 5.0
)

type port struct {
	name   string
	region string
	lat    float64
	lng    float64
}

var seaports = []port{
	{"Port of Shanghai", "Asia-Pacific", 31.2304, 121.4737},
	{"Port of Singapore", "Asia-Pacific", 1.2644, 103.8220},
	{"Port of Busan", "Asia-Pacific", 35.1041, 129.0421},
	{"Port of Rotterdam", "Europe", 51.9496, 4.1453},
	{"Port of Hamburg", "Europe", 53.5461, 9.9661},
	{"Port of Antwerp", "Europe", 51.2485, 4.4036},
	{"Port of Los Angeles", "Americas", 33.7405, -118.2760},
	{"Port of New York", "Americas", 40.6840, -74.0062},
	{"Port of Santos", "Americas", -23.9815, -46.2995},
	{"Jebel Ali Port", "Middle East", 25.0118, 55.0618},
}

var carriers = []string{
	"Maersk Line", "MSC", "CMA CGM", "Hapag-Lloyd", "Evergreen Marine", "COSCO Shipping",
}

var vessels = []string{
	"Ever Given", "Emma Maersk", "MSC Oscar", "CMA CGM Marco Polo",
	"OOCL Hong Kong", "HMM Algeciras", "Madrid Maersk", "MOL Triumph",
}

var captains = []string{
	"James Morrison", "Elena Petrova", "Hiroshi Tanaka", "Marcus Silva",
	"Ingrid Larsen", "Ahmed Al-Farsi",
}

var cargo = []ports.ManifestItemInput{
	{Item: "Electronics", Quantity: 1200, Weight: "18t", Value: "$2.4M"},
	{Item: "Automotive parts", Quantity: 640, Weight: "32t", Value: "$1.1M"},
	{Item: "Textiles", Quantity: 2400, Weight: "12t", Value: "$480K"},
	{Item: "Machinery", Quantity: 85, Weight: "64t", Value: "$3.2M"},
	{Item: "Pharmaceuticals", Quantity: 900, Weight: "6t", Value: "$5.6M"},
	{Item: "Frozen goods", Quantity: 1500, Weight: "28t", Value: "$720K"},
}

// generateRoute interpolates between origin and destination with a sine bow
// applied to the longitude so the path looks like a sea lane rather than a
// great-circle ruler line.
func generateRoute(origin, dest port) []domain.GeoPoint {
	route := make([]domain.GeoPoint, 0, routeSteps+1)
	for i := 0; i <= routeSteps; i++ {
		t := float64(i) / float64(routeSteps)
		route = append(route, domain.GeoPoint{
			Lat: origin.lat + (dest.lat-origin.lat)*t,
			Lng: origin.lng + (dest.lng-origin.lng)*t + math.Sin(t*math.Pi)*curveAmplitude,
		})
	}
	return route
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.Init(logger.Options{})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	repo := mongodb.NewShipmentRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure shipment indexes")
	}
	shipments := service.NewShipmentService(repo, log)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	created := 0

	for i := 0; i < fleetSize; i++ {
		origin := seaports[rng.Intn(len(seaports))]
		dest := seaports[rng.Intn(len(seaports))]
		for dest.name == origin.name {
			dest = seaports[rng.Intn(len(seaports))]
		}

		route := generateRoute(origin, dest)
		manifest := []ports.ManifestItemInput{
			cargo[rng.Intn(len(cargo))],
			cargo[rng.Intn(len(cargo))],
		}

		in := ports.CreateShipmentInput{
			ShipmentID:  fmt.Sprintf("SHP-%d-%03d", time.Now().Year(), i+1),
			Carrier:     carriers[rng.Intn(len(carriers))],
			VesselName:  vessels[rng.Intn(len(vessels))],
			Mode:        string(domain.ModeSea),
			Origin:      ports.EndpointInput{Address: origin.name, Lat: origin.lat, Lng: origin.lng},
			Destination: ports.EndpointInput{Address: dest.name, Lat: dest.lat, Lng: dest.lng},
			Route:       route,
			Captain:     captains[rng.Intn(len(captains))],
			Crew:        []string{"First Officer", "Chief Engineer", "Bosun"},
			Manifest:    manifest,
			Region:      origin.region,
		}

		shipment, err := shipments.Create(ctx, in)
		if err != nil {
			if errors.Is(err, domain.ErrDuplicateShipment) {
				log.Warn().Str("shipment_id", in.ShipmentID).Msg("already seeded, skipping")
				continue
			}
			log.Fatal().Err(err).Str("shipment_id", in.ShipmentID).Msg("seed failed")
		}

		// Most of the fleet starts mid-voyage so the dashboard has
		// something to show immediately.
		if rng.Float64() < 0.75 {
			idx := 1 + rng.Intn(len(route)-2)
			err := repo.ApplyPosition(ctx, shipment.ShipmentID, ports.PositionMutation{
				Location:  route[idx],
				Status:    domain.StatusInTransit,
				Speed:     400 + rng.Float64()*50,
				Timestamp: time.Now().UTC(),
			})
			if err != nil {
				log.Fatal().Err(err).Str("shipment_id", shipment.ShipmentID).Msg("seed position failed")
			}
		}

		created++
		log.Info().
			Str("shipment_id", shipment.ShipmentID).
			Str("origin", origin.name).
			Str("destination", dest.name).
			Msg("seeded shipment")
	}

	log.Info().Int("created", created).Msg("seed complete")
}
