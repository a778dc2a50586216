package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cargoflow/tracking-system/internal/core/domain"
	"github.com/cargoflow/tracking-system/internal/core/ports"
)

const collectionShipments = "shipments"

// ShipmentRepository implements ports.ShipmentRepository on MongoDB.
type ShipmentRepository struct {
	col *mongo.Collection
}

func NewShipmentRepository(db *mongo.Database) *ShipmentRepository {
	return &ShipmentRepository{col: db.Collection(collectionShipments)}
}

// Create inserts a new shipment document.
func (r *ShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, s)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateShipment
	}
	return classify(err)
}

// FindByID retrieves a shipment by its shipment identifier.
func (r *ShipmentRepository) FindByID(ctx context.Context, shipmentID string) (*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.Shipment
	err := r.col.FindOne(ctx, bson.M{"shipment_id": shipmentID}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, classify(err)
	}
	return &s, nil
}

// List returns all shipments matching filter.
func (r *ShipmentRepository) List(ctx context.Context, filter ports.ListShipmentsFilter) ([]*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Region != "" {
		query["region"] = filter.Region
	}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}

	cursor, err := r.col.Find(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var shipments []*domain.Shipment
	if err := cursor.All(ctx, &shipments); err != nil {
		return nil, classify(err)
	}
	return shipments, nil
}

// ApplyPosition atomically overwrites location, status, speed and the
// updated-at timestamp for one shipment. The write is keyed on the
// shipment identifier only; per-shipment updates are independent.
func (r *ShipmentRepository) ApplyPosition(ctx context.Context, shipmentID string, m ports.PositionMutation) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"shipment_id": shipmentID},
		bson.M{"$set": bson.M{
			"current_location": m.Location,
			"status":           string(m.Status),
			"speed":            m.Speed,
			"updated_at":       m.Timestamp.UTC(),
		}},
	)
	if err != nil {
		return classify(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

// CountByStatus aggregates the fleet total and the per-status breakdown.
func (r *ShipmentRepository) CountByStatus(ctx context.Context) (int64, map[domain.ShipmentStatus]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, nil, classify(err)
	}

	cursor, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return 0, nil, classify(err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, nil, classify(err)
	}

	byStatus := make(map[domain.ShipmentStatus]int64, len(rows))
	for _, row := range rows {
		byStatus[domain.ShipmentStatus(row.Status)] = row.Count
	}
	return total, byStatus, nil
}

// EnsureIndexes creates the indexes the query paths rely on.
func (r *ShipmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "shipment_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "region", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
