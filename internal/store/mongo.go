package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopify-catalog/internal/catalog"
	"shopify-catalog/internal/types"
)

const sitesCollection = "sites"

// MongoStore keeps one document per site, keyed by the site id, plus the
// colour vocabulary document under catalog.ColorsKey in the same collection.
type MongoStore struct {
	client *mongo.Client
	sites  *mongo.Collection
	logger types.Logger
}

type siteDoc struct {
	Site      string       `bson:"_id"`
	Products  []productDoc `bson:"products"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

type productDoc struct {
	Handle   string       `bson:"handle"`
	Title    string       `bson:"title"`
	BodyHTML string       `bson:"body_html"`
	Vendor   string       `bson:"vendor"`
	Category string       `bson:"category"`
	Type     string       `bson:"type"`
	Tags     []string     `bson:"tags"`
	Variants []variantDoc `bson:"variants"`
}

type variantDoc struct {
	SKU            string               `bson:"sku"`
	Size           string               `bson:"size"`
	Color          string               `bson:"color"`
	Price          primitive.Decimal128 `bson:"price"`
	CompareAtPrice primitive.Decimal128 `bson:"compare_at_price"`
	Images         []string             `bson:"images"`
}

type colorsDoc struct {
	ID        string               `bson:"_id"`
	Colors    []catalog.ColorEntry `bson:"colors"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

// NewMongoStore connects to uri and verifies the connection.
func NewMongoStore(ctx context.Context, uri, database string, logger types.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	logger.Infof("Connected to MongoDB database %s", database)
	return &MongoStore{
		client: client,
		sites:  client.Database(database).Collection(sitesCollection),
		logger: logger,
	}, nil
}

func (m *MongoStore) SaveSite(ctx context.Context, site string, products []catalog.Product) error {
	if site == "" || site == catalog.ColorsKey {
		return fmt.Errorf("invalid site key %q", site)
	}
	docs, err := toProductDocs(products)
	if err != nil {
		return err
	}
	doc := siteDoc{Site: site, Products: docs, UpdatedAt: time.Now().UTC()}
	_, err = m.sites.ReplaceOne(ctx, bson.M{"_id": site}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save site %s: %w", site, err)
	}
	m.logger.Debugf("Saved %d products for %s", len(products), site)
	return nil
}

func (m *MongoStore) LoadSite(ctx context.Context, site string) ([]catalog.Product, error) {
	var doc siteDoc
	err := m.sites.FindOne(ctx, bson.M{"_id": site}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSiteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load site %s: %w", site, err)
	}
	return fromProductDocs(doc.Products)
}

func (m *MongoStore) Sites(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := m.sites.Find(ctx, bson.M{"_id": bson.M{"$ne": catalog.ColorsKey}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer cursor.Close(ctx)

	var sites []string
	for cursor.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode site: %w", err)
		}
		sites = append(sites, row.ID)
	}
	return sites, cursor.Err()
}

// MergeColors is a read-modify-write of the vocabulary document; batches
// run one store at a time so writers do not interleave.
func (m *MongoStore) MergeColors(ctx context.Context, colors []string) error {
	existing, err := m.Colors(ctx)
	if err != nil {
		return err
	}
	merged, added := mergeColorEntries(existing, colors)
	if !added {
		return nil
	}
	doc := colorsDoc{ID: catalog.ColorsKey, Colors: merged, UpdatedAt: time.Now().UTC()}
	_, err = m.sites.ReplaceOne(ctx, bson.M{"_id": catalog.ColorsKey}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save colors: %w", err)
	}
	m.logger.Debugf("Colour vocabulary now has %d entries", len(merged))
	return nil
}

func (m *MongoStore) Colors(ctx context.Context) ([]catalog.ColorEntry, error) {
	var doc colorsDoc
	err := m.sites.FindOne(ctx, bson.M{"_id": catalog.ColorsKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load colors: %w", err)
	}
	return doc.Colors, nil
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func toProductDocs(products []catalog.Product) ([]productDoc, error) {
	docs := make([]productDoc, 0, len(products))
	for _, p := range products {
		doc := productDoc{
			Handle:   p.Handle,
			Title:    p.Title,
			BodyHTML: p.BodyHTML,
			Vendor:   p.Vendor,
			Category: p.Category,
			Type:     p.Type,
			Tags:     p.Tags,
		}
		for _, v := range p.Variants {
			price, err := primitive.ParseDecimal128(v.Price.String())
			if err != nil {
				return nil, fmt.Errorf("product %s: invalid price %s: %w", p.Handle, v.Price, err)
			}
			compare, err := primitive.ParseDecimal128(v.CompareAtPrice.String())
			if err != nil {
				return nil, fmt.Errorf("product %s: invalid compare price %s: %w", p.Handle, v.CompareAtPrice, err)
			}
			doc.Variants = append(doc.Variants, variantDoc{
				SKU:            v.SKU,
				Size:           v.Size,
				Color:          v.Color,
				Price:          price,
				CompareAtPrice: compare,
				Images:         v.Images,
			})
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func fromProductDocs(docs []productDoc) ([]catalog.Product, error) {
	products := make([]catalog.Product, 0, len(docs))
	for _, d := range docs {
		p := catalog.Product{
			Handle:   d.Handle,
			Title:    d.Title,
			BodyHTML: d.BodyHTML,
			Vendor:   d.Vendor,
			Category: d.Category,
			Type:     d.Type,
			Tags:     d.Tags,
		}
		for _, v := range d.Variants {
			price, err := decimal.NewFromString(v.Price.String())
			if err != nil {
				return nil, fmt.Errorf("product %s: invalid stored price: %w", d.Handle, err)
			}
			compare, err := decimal.NewFromString(v.CompareAtPrice.String())
			if err != nil {
				return nil, fmt.Errorf("product %s: invalid stored compare price: %w", d.Handle, err)
			}
			p.Variants = append(p.Variants, catalog.Variant{
				SKU:            v.SKU,
				Size:           v.Size,
				Color:          v.Color,
				Price:          price,
				CompareAtPrice: compare,
				Images:         v.Images,
			})
		}
		products = append(products, p)
	}
	return products, nil
}
