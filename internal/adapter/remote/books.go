package remote

import (
	"context"
	"net/url"

	"loans-service/internal/domain/loan"
)

// BooksClient reads and flips book availability in the catalog service.
type BooksClient struct{ c *client }

func NewBooksClient(baseURL string, opts ...Option) *BooksClient {
	return &BooksClient{c: newClient(baseURL, opts...)}
}

func (b *BooksClient) GetBook(ctx context.Context, bookID string) (*loan.Book, error) {
	var out loan.Book
	if err := b.c.getJSON(ctx, "/api/books/"+url.PathEscape(bookID), &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = bookID
	}
	return &out, nil
}

func (b *BooksClient) MarkLoaned(ctx context.Context, bookID string) error {
	return b.c.postNoContent(ctx, "/api/books/"+url.PathEscape(bookID)+"/loaned")
}

func (b *BooksClient) MarkReturned(ctx context.Context, bookID string) error {
	return b.c.postNoContent(ctx, "/api/books/"+url.PathEscape(bookID)+"/returned")
}
