package database

import "context"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
	    id BIGINT PRIMARY KEY AUTO_INCREMENT,
	    name VARCHAR(100) NOT NULL,
	    email VARCHAR(255) NOT NULL,
	    password_hash VARCHAR(100) NOT NULL,
	    role ENUM('admin', 'staff') NOT NULL DEFAULT 'staff',
	    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	    UNIQUE KEY uk_email (email),
	    INDEX idx_role (role)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS products (
	    id BIGINT PRIMARY KEY AUTO_INCREMENT,
	    name VARCHAR(255) NOT NULL,
	    description TEXT NOT NULL,
	    price DECIMAL(10,2) NOT NULL,
	    image VARCHAR(512) NOT NULL,
	    image_id VARCHAR(255) NOT NULL DEFAULT '',
	    category VARCHAR(100) NOT NULL,
	    unit ENUM('kg', 'gm', 'liter', 'ml', 'piece', 'dozen', 'packet') NOT NULL,
	    in_stock BOOLEAN NOT NULL DEFAULT TRUE,
	    max_quantity DECIMAL(10,2) NOT NULL,
	    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	    CHECK (price >= 0),
	    CHECK (max_quantity >= 1),
	    INDEX idx_category (category),
	    INDEX idx_in_stock (in_stock),
	    INDEX idx_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS orders (
	    id BIGINT PRIMARY KEY AUTO_INCREMENT,
	    order_number VARCHAR(32) NOT NULL,
	    customer_name VARCHAR(255) NOT NULL,
	    phone VARCHAR(50) NOT NULL,
	    email VARCHAR(255) NOT NULL DEFAULT '',
	    total_amount DECIMAL(12,2) NOT NULL,
	    status ENUM('pending', 'preparing', 'ready', 'completed', 'cancelled') NOT NULL DEFAULT 'pending',
	    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	    CHECK (total_amount >= 0),
	    UNIQUE KEY uk_order_number (order_number),
	    INDEX idx_status (status),
	    INDEX idx_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	// product_id is deliberately not a foreign key: items are snapshots and
	// must survive the deletion of the product they were copied from
	`CREATE TABLE IF NOT EXISTS order_items (
	    id BIGINT PRIMARY KEY AUTO_INCREMENT,
	    order_id BIGINT NOT NULL,
	    position INT NOT NULL,
	    product_id BIGINT NOT NULL,
	    name VARCHAR(255) NOT NULL,
	    price DECIMAL(10,2) NOT NULL,
	    quantity DECIMAL(10,2) NOT NULL,
	    unit VARCHAR(16) NOT NULL,
	    image VARCHAR(512) NOT NULL,
	    CHECK (quantity > 0),
	    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
	    UNIQUE KEY uk_order_position (order_id, position),
	    INDEX idx_product_id (product_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// SetupSchema creates the application tables
func (db *DB) SetupSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}

// DropSchema removes all application tables
func (db *DB) DropSchema(ctx context.Context) error {
	queries := []string{
		"DROP TABLE IF EXISTS order_items",
		"DROP TABLE IF EXISTS orders",
		"DROP TABLE IF EXISTS products",
		"DROP TABLE IF EXISTS users",
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}

	return nil
}
