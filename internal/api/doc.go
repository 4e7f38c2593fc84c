// Package api is the REST surface for the scheduler daemon: a small
// gin.Engine exposing a home resource listing the other endpoints, a
// paginated jobs collection, a single-job resource (get/put/delete), and
// a static description of the schedule grammar at /spec. Every write
// goes through internal/jobs validation and internal/store persistence
// before being handed to the internal/scheduler engine as a Mutation.
package api
