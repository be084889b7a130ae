package view

import (
	"context"
	"fmt"
	"strings"

	"bookbank/internal/lending"
)

// ImageCheck reports whether an image source can be loaded.
type ImageCheck func(ctx context.Context, src string) bool

// Card is the rendered form of one book.
type Card struct {
	BookID    lending.BookID
	Image     string
	Title     string
	Condition string
	Author    string
	Genre     string
	Holder    string
	Owner     string
	Since     string
}

// NewCard builds the card for b. An empty thumbnail, or one check rejects,
// falls back to the placeholder image.
func NewCard(ctx context.Context, b lending.Book, check ImageCheck) Card {
	image := b.Thumbnail
	if strings.TrimSpace(image) == "" || (check != nil && !check(ctx, image)) {
		image = lending.PlaceholderImage
	}
	return Card{
		BookID:    b.ID,
		Image:     image,
		Title:     b.Title,
		Condition: b.Condition,
		Author:    b.Author,
		Genre:     b.Genre,
		Holder:    b.Holder,
		Owner:     b.Owner,
		Since:     b.PossessedSince,
	}
}

func (c Card) Lines() []string {
	return []string{
		fmt.Sprintf("[image: %s]", c.Image),
		c.Title,
		"  Title: " + c.Title,
		"  Condition: " + c.Condition,
		"  Author: " + c.Author,
		"  Genre: " + c.Genre,
		"  Holder: " + c.Holder,
		fmt.Sprintf("  Owner: %s | Since: %s", c.Owner, c.Since),
		fmt.Sprintf("  [Request Book] bookbank request-book %d", c.BookID),
	}
}

// RenderBooks renders one card per book, separated by blank lines.
func RenderBooks(ctx context.Context, books []lending.Book, check ImageCheck) []string {
	var lines []string
	for i, b := range books {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, NewCard(ctx, b, check).Lines()...)
	}
	return lines
}
