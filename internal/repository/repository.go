package repository

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres for production, memory for
// tests) and must satisfy the identical contract; the shared suite in the
// repotest subpackage verifies both against the same behavior.
