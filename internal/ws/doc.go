// Package ws implements the real-time team messaging subsystem.
//
// # Features
//
//   - Connection registry keyed by (userID, sessionID) with configurable limits
//   - Team broadcasting with worker pool fan-out and per-connection outcomes
//   - Closed sum-type message routing (chat / notification / unknown)
//   - Heartbeat-driven connection lifecycle with send queues
//   - Built-in metrics interface
//   - Origin whitelist for security
//
// # Basic Usage
//
// Create the service with a storage collaborator and mount the upgrade entry:
//
//	svc, err := ws.NewService(store, log,
//	    ws.WithMaxConnections(10000),
//	    ws.WithHeartbeat(30*time.Second, 90*time.Second),
//	    ws.WithCheckOriginWhitelist([]string{
//	        "https://example.com",
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	engine.GET("/ws", func(c *gin.Context) {
//	    svc.HandleUpgrade(c.Writer, c.Request)
//	})
//
// Clients connect with userId and sessionId query parameters; invalid
// identity closes the socket with a policy-violation status before any
// registration happens. Inbound chat frames are persisted first and the
// stored record is what gets broadcast to the team's open connections.
// Business code can push notifications through the broadcaster:
//
//	svc.Broadcaster().SendToUser(userID, envelope)
package ws
