package api

import (
	"log"
	"net/http"
)

// Store and other internal errors are never echoed to clients. The full
// error is logged server-side and the response carries a generic message.

func respondStoreError(w http.ResponseWriter, internalErr error) {
	if internalErr != nil {
		log.Printf("ERROR [500]: %v", internalErr)
	}
	respondError(w, http.StatusInternalServerError, errDatabase, "An error occurred. Please try again.")
}
