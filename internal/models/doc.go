// Package models defines domain entities and persistence interfaces for the moodify recommendation pipeline.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing pipeline data
//   - Emotion signals and mood queries live in their own packages (emotion, mood);
//     models only defines what crosses the persistence boundary.
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [Recommendation] : A recorded mood decision with the playlist it resolved to
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
