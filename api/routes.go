package api

import "github.com/BenB289/BMGPanel/acl"

// RegisterRoutes registers the application API routes.
func (api *InternalAPI) RegisterRoutes() {
	application := api.router.Group("/api/application")
	{
		application.GET("/", api.AuthHandler(""), GetIndex)

		application.GET("/nests/:nest/eggs/:egg", api.AuthHandler(acl.Eggs), api.handleGetEgg)

		eggs := application.Group("/eggs/:egg")
		{
			eggs.GET("", api.AuthHandler(acl.Eggs), api.handleGetEgg)

			eggs.POST("/variables", api.AuthHandler(acl.Eggs), api.handlePostEggVariable)
			eggs.PATCH("/variables", api.AuthHandler(acl.Eggs), api.handlePatchEggVariables)
			eggs.DELETE("/variables/:variable", api.AuthHandler(acl.Eggs), api.handleDeleteEggVariable)
		}
	}
}
