package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dhanavadh/aiform-backend/internal/auth"
)

type Handlers struct {
	Forms     *FormHandler
	Pages     *PageHandler
	Public    *PublicHandler
	Responses *ResponseHandler
	Payments  *PaymentHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers, verifier *auth.Verifier) {
	r.Use(verifier.Middleware())

	r.GET("/aiform/:id", h.Pages.PublicForm)
	r.POST("/aiform/:id", h.Pages.SubmitForm)

	editor := r.Group("/edit-style", auth.RequireUser())
	{
		editor.GET("/:id", h.Pages.EditPage)
		editor.POST("/:id/fields/:index", h.Pages.EditFieldForm)
		editor.POST("/:id/fields/:index/delete", h.Pages.DeleteFieldForm)
	}

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		api.GET("/public/forms/:id", h.Public.GetForm)
		api.POST("/public/forms/:id/responses", h.Public.SubmitResponse)

		api.POST("/status/:id", h.Payments.Status)

		owner := api.Group("", auth.RequireUser())
		owner.POST("/forms", h.Forms.Create)
		owner.GET("/forms", h.Forms.List)
		owner.GET("/forms/:id", h.Forms.GetByID)
		owner.PUT("/forms/:id/schema", h.Forms.OverwriteSchema)
		owner.PATCH("/forms/:id/fields/:index", h.Forms.EditField)
		owner.DELETE("/forms/:id/fields/:index", h.Forms.DeleteField)
		owner.PUT("/forms/:id/style", h.Forms.UpdateStyle)
		owner.DELETE("/forms/:id", h.Forms.Delete)

		owner.GET("/forms/:id/responses", h.Responses.List)
		owner.GET("/forms/:id/export", h.Responses.Export)
		owner.GET("/forms/:id/pdf", h.Responses.PDF)

		owner.POST("/payments/checkout", h.Payments.Checkout)
	}
}
