package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"go-buildmart/repository"
	"go-buildmart/routes"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _ := repository.NewMemoryStore()
		app := routes.Build(routes.Deps{Store: store})
		router := mux.NewRouter()
		routes.RegisterRoutes(router, app.Auth, app.Controllers)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH")
		fmt.Fprintln(w, "------\t----")
		err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
			path, err := route.GetPathTemplate()
			if err != nil {
				return nil
			}
			methods, err := route.GetMethods()
			if err != nil {
				return nil
			}
			fmt.Fprintf(w, "%s\t%s\n", strings.Join(methods, ","), path)
			return nil
		})
		if err != nil {
			return err
		}
		return w.Flush()
	},
}
