package middleware

import (
	"net/http"

	"ai-financer/internal/session"
	"ai-financer/internal/syncer"
	"ai-financer/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	ctxIdentity = "identity"
	ctxBook     = "book"
)

// SessionState reports the resolved session.
type SessionState interface {
	State() session.State
}

// BookSource hands out the book of the current identity.
type BookSource interface {
	Current() *syncer.Book
}

// RequireSession admits a request only once the session is resolved to a
// guest or a signed-in user whose book is open. While resolution is still
// running the client gets a placeholder; without a session it is sent back
// to the sign-in page.
func RequireSession(sess SessionState, books BookSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := sess.State()
		if st.Pending {
			pending(c)
			return
		}
		if st.Identity.IsNone() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":     util.CodeAuth,
				"message":  "Please sign in",
				"redirect": "/",
			})
			return
		}

		book := books.Current()
		if book == nil || book.Identity() != st.Identity {
			// reconciliation for the new identity has not finished
			pending(c)
			return
		}

		c.Set(ctxIdentity, st.Identity)
		c.Set(ctxBook, book)
		c.Next()
	}
}

func pending(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusAccepted, gin.H{
		"code":    util.CodePending,
		"message": "Loading...",
	})
}

// CurrentBook returns the book stored by RequireSession.
func CurrentBook(c *gin.Context) *syncer.Book {
	v, ok := c.Get(ctxBook)
	if !ok {
		return nil
	}
	b, _ := v.(*syncer.Book)
	return b
}

// CurrentIdentity returns the identity stored by RequireSession, or None.
func CurrentIdentity(c *gin.Context) session.Identity {
	v, ok := c.Get(ctxIdentity)
	if !ok {
		return session.None
	}
	id, _ := v.(session.Identity)
	return id
}
