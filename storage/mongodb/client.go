//
// Tencent is pleased to support the open source community by making quizcore available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// quizcore is licensed under the Apache License Version 2.0.
//
//

// Package mongodb provides the MongoDB-backed stores.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client defines the interface for MongoDB operations. It is a narrow slice
// of the official driver so the stores can be exercised against fakes.
type Client interface {
	// InsertOne executes an insert command to insert a single document into the collection.
	InsertOne(ctx context.Context, database string, coll string, document interface{},
		opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)

	// UpdateOne executes an update command to update at most one document in the collection.
	UpdateOne(ctx context.Context, database string, coll string, filter interface{}, update interface{},
		opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)

	// FindOne executes a find command and returns a SingleResult for one document in the collection.
	FindOne(ctx context.Context, database string, coll string, filter interface{},
		opts ...*options.FindOneOptions) *mongo.SingleResult

	// FindOneAndUpdate executes a findAndModify command and returns the document as it
	// appears after the update.
	FindOneAndUpdate(ctx context.Context, database string, coll string, filter interface{},
		update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult

	// Find executes a find command and returns a Cursor over the matching documents in the collection.
	Find(ctx context.Context, database string, coll string, filter interface{},
		opts ...*options.FindOptions) (*mongo.Cursor, error)

	// CountDocuments returns the number of documents in the collection.
	CountDocuments(ctx context.Context, database string, coll string, filter interface{},
		opts ...*options.CountOptions) (int64, error)

	// CreateIndexes creates the given indexes on the collection.
	CreateIndexes(ctx context.Context, database string, coll string, models []mongo.IndexModel) error

	// Disconnect closes the mongo client.
	Disconnect(ctx context.Context) error
}

// NewClient connects to MongoDB and verifies the connection.
func NewClient(ctx context.Context, uri string) (Client, error) {
	if uri == "" {
		return nil, errors.New("mongodb: URI is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect failed: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb: ping failed: %w", err)
	}
	return &nativeClient{client: client}, nil
}

// nativeClient wraps *mongo.Client to implement the Client interface.
type nativeClient struct {
	client *mongo.Client
}

// InsertOne implements Client.InsertOne.
func (c *nativeClient) InsertOne(ctx context.Context, database string, coll string, document interface{},
	opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	return c.client.Database(database).Collection(coll).InsertOne(ctx, document, opts...)
}

// UpdateOne implements Client.UpdateOne.
func (c *nativeClient) UpdateOne(ctx context.Context, database string, coll string, filter interface{},
	update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.client.Database(database).Collection(coll).UpdateOne(ctx, filter, update, opts...)
}

// FindOne implements Client.FindOne.
func (c *nativeClient) FindOne(ctx context.Context, database string, coll string, filter interface{},
	opts ...*options.FindOneOptions) *mongo.SingleResult {
	return c.client.Database(database).Collection(coll).FindOne(ctx, filter, opts...)
}

// FindOneAndUpdate implements Client.FindOneAndUpdate.
func (c *nativeClient) FindOneAndUpdate(ctx context.Context, database string, coll string, filter interface{},
	update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	return c.client.Database(database).Collection(coll).FindOneAndUpdate(ctx, filter, update, opts...)
}

// Find implements Client.Find.
func (c *nativeClient) Find(ctx context.Context, database string, coll string, filter interface{},
	opts ...*options.FindOptions) (*mongo.Cursor, error) {
	return c.client.Database(database).Collection(coll).Find(ctx, filter, opts...)
}

// CountDocuments implements Client.CountDocuments.
func (c *nativeClient) CountDocuments(ctx context.Context, database string, coll string, filter interface{},
	opts ...*options.CountOptions) (int64, error) {
	return c.client.Database(database).Collection(coll).CountDocuments(ctx, filter, opts...)
}

// CreateIndexes implements Client.CreateIndexes.
func (c *nativeClient) CreateIndexes(ctx context.Context, database string, coll string,
	models []mongo.IndexModel) error {
	_, err := c.client.Database(database).Collection(coll).Indexes().CreateMany(ctx, models)
	return err
}

// Disconnect implements Client.Disconnect.
func (c *nativeClient) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
