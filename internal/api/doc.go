// Package api implements the REST/JSON surface of the gateway.
//
// Every endpoint is one row of the Endpoints table: which backend method it
// calls, how the request becomes the call payload, which response field is
// returned and which statuses are used. A single generic handler interprets
// the table, so no endpoint carries business logic of its own.
package api
