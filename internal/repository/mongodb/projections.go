package mongodb

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/farmledger/internal/domain/models"
)

// Column projections per collection and view. Detail always returns the full
// document; list trims the heavy array fields; minimal is id + label.
var listProjections = map[string]bson.M{
	CollLiveBatches: {"weight_samples": 0},
	CollOrders:      nil,
	CollStock:       nil,
}

var minimalProjections = map[string]bson.M{
	CollOrders:         {"_id": 1, "customer": 1, "status": 1},
	CollStock:          {"_id": 1, "name": 1},
	CollLiveBatches:    {"_id": 1, "name": 1, "current_count": 1},
	CollDressedBatches: {"_id": 1, "current_count": 1},
	CollFeedInventory:  {"_id": 1, "feed_type": 1, "quantity_kg": 1},
	CollTransactions:   {"_id": 1, "type": 1, "amount": 1},
}

func projectionFor(coll string, view models.View) bson.M {
	switch view {
	case models.ViewMinimal:
		return minimalProjections[coll]
	case models.ViewList:
		return listProjections[coll]
	default:
		return nil
	}
}
