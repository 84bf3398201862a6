// Package main runs an in-memory LibraryService for local development.
package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"github.com/library-lending/gateway/internal/mockbackend"
)

const defaultAddr = ":50051"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting library mock backend...")

	addr := os.Getenv("LIBRARY_MOCK_ADDR")
	if addr == "" {
		addr = defaultAddr
	}

	store := mockbackend.NewStore()
	if path := os.Getenv("LIBRARY_MOCK_SEED"); path != "" {
		seed, err := mockbackend.LoadSeed(path)
		if err != nil {
			log.Fatalf("Failed to load seed: %v", err)
		}
		if err := seed.Apply(store); err != nil {
			log.Fatalf("Failed to apply seed: %v", err)
		}
		log.Printf("Seeded %d books and %d members from %s", len(seed.Books), len(seed.Members), path)
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", addr, err)
	}

	server := grpc.NewServer()
	mockbackend.NewService(store).Register(server)

	go func() {
		log.Printf("LibraryService listening on %s", lis.Addr())
		if err := server.Serve(lis); err != nil {
			log.Fatalf("gRPC server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down library mock backend...")
	server.GracefulStop()
	log.Println("Server stopped")
}
