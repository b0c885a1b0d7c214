package simplearticle

import (
	"context"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful for production when you don't need event handling or for testing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// ArticleCreated does nothing and returns nil
func (n *NoopEventSink) ArticleCreated(ctx context.Context, article *Article) error {
	return nil
}

// ArticleUpdated does nothing and returns nil
func (n *NoopEventSink) ArticleUpdated(ctx context.Context, article *Article) error {
	return nil
}

// ArticleStatusChanged does nothing and returns nil
func (n *NoopEventSink) ArticleStatusChanged(ctx context.Context, article *Article, previous, next ArticleStatus) error {
	return nil
}

// ArticlePublished does nothing and returns nil
func (n *NoopEventSink) ArticlePublished(ctx context.Context, article *Article) error {
	return nil
}

// ArticleDeleted does nothing and returns nil
func (n *NoopEventSink) ArticleDeleted(ctx context.Context, articleID uuid.UUID) error {
	return nil
}

// ImageAdded does nothing and returns nil
func (n *NoopEventSink) ImageAdded(ctx context.Context, image *ArticleImage) error {
	return nil
}

// ImageDeleted does nothing and returns nil
func (n *NoopEventSink) ImageDeleted(ctx context.Context, articleID, imageID uuid.UUID) error {
	return nil
}

// LoggingEventSink is an event sink that logs events but takes no other action
// Useful for development and debugging
type LoggingEventSink struct {
	logger Logger
}

// Logger interface for logging events
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NewLoggingEventSink creates a new logging event sink
func NewLoggingEventSink(logger Logger) EventSink {
	return &LoggingEventSink{logger: logger}
}

// ArticleCreated logs the article creation event
func (l *LoggingEventSink) ArticleCreated(ctx context.Context, article *Article) error {
	l.logger.Infof("Article created: ID=%s, Title=%s", article.ID, article.Title)
	return nil
}

// ArticleUpdated logs the article update event
func (l *LoggingEventSink) ArticleUpdated(ctx context.Context, article *Article) error {
	l.logger.Infof("Article updated: ID=%s, Title=%s", article.ID, article.Title)
	return nil
}

// ArticleStatusChanged logs the status transition event
func (l *LoggingEventSink) ArticleStatusChanged(ctx context.Context, article *Article, previous, next ArticleStatus) error {
	l.logger.Infof("Article status changed: ID=%s, %s -> %s", article.ID, previous, next)
	return nil
}

// ArticlePublished logs the publication event
func (l *LoggingEventSink) ArticlePublished(ctx context.Context, article *Article) error {
	l.logger.Infof("Article published: ID=%s, NoteID=%s", article.ID, article.XHSNoteID)
	return nil
}

// ArticleDeleted logs the article deletion event
func (l *LoggingEventSink) ArticleDeleted(ctx context.Context, articleID uuid.UUID) error {
	l.logger.Infof("Article deleted: ID=%s", articleID)
	return nil
}

// ImageAdded logs the image attachment event
func (l *LoggingEventSink) ImageAdded(ctx context.Context, image *ArticleImage) error {
	l.logger.Infof("Image added: ID=%s, ArticleID=%s, Path=%s", image.ID, image.ArticleID, image.StoragePath)
	return nil
}

// ImageDeleted logs the image removal event
func (l *LoggingEventSink) ImageDeleted(ctx context.Context, articleID, imageID uuid.UUID) error {
	l.logger.Infof("Image deleted: ID=%s, ArticleID=%s", imageID, articleID)
	return nil
}
